package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"music-controller/internal/domain"
)

// settingsValidator 与 gin 的 binding 使用同一个校验库，规则与请求结构体的标签一致
var settingsValidator = validator.New()

// SettingsInput 房间设置的原始输入，字段可能缺失，因此使用指针
type SettingsInput struct {
	GuestCanPause *bool `validate:"required"`       // 必填，false 也是合法值
	VotesToSkip   *int  `validate:"required,min=1"` // 至少需要 1 票才能跳过
}

// ValidateSettings 校验输入并返回类型化的 RoomSettings
// 校验失败时返回包装了 ErrInvalidSettings 的错误
func ValidateSettings(in SettingsInput) (domain.RoomSettings, error) {
	if err := settingsValidator.Struct(in); err != nil {
		// 将 validator 的错误统一包装为业务错误，Handler 层据此映射为 400
		return domain.RoomSettings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return domain.RoomSettings{
		GuestCanPause: *in.GuestCanPause,
		VotesToSkip:   *in.VotesToSkip,
	}, nil
}
