package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"music-controller/internal/repository"
	"music-controller/internal/tasks"
)

// WorkerServer 封装 asynq 服务端与周期任务调度器
type WorkerServer struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	schedule  string
	log       *logrus.Entry
	orphans   *OrphanRoomHandler
}

// NewWorkerServer 创建 WorkerServer
// schedule 为空时不注册周期清理，服务端仍会处理其他方式入队的任务
func NewWorkerServer(redisOpt asynq.RedisClientOpt, roomRepo repository.RoomRepository, sessions repository.SessionStore, schedule string, logger *logrus.Logger) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
		},
	)

	ws := &WorkerServer{
		server:   server,
		schedule: schedule,
		log:      logEntry,
		orphans:  NewOrphanRoomHandler(roomRepo, sessions),
	}
	if schedule != "" {
		ws.scheduler = asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})
	}
	return ws
}

// Mux 返回任务路由
func (ws *WorkerServer) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypePurgeOrphanRooms, ws.orphans.ProcessTask)
	return mux
}

// Start 启动 Worker 服务端，配置了调度计划时同时启动调度器
// 两者都在 asynq 自己管理的 goroutine 中运行
func (ws *WorkerServer) Start() error {
	ws.log.Info("Worker server starting...")
	if err := ws.server.Start(ws.Mux()); err != nil {
		return fmt.Errorf("start worker server: %w", err)
	}
	if ws.scheduler == nil {
		ws.log.Info("Periodic orphan room purge disabled")
		return nil
	}
	if err := ws.registerPeriodicTasks(); err != nil {
		return fmt.Errorf("register periodic tasks: %w", err)
	}
	if err := ws.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	ws.log.Info("Asynq scheduler started")
	return nil
}

func (ws *WorkerServer) registerPeriodicTasks() error {
	payload, err := tasks.NewPurgeOrphanRoomsTask(time.Now())
	if err != nil {
		return err
	}
	task := asynq.NewTask(tasks.TypePurgeOrphanRooms, payload)
	entryID, err := ws.scheduler.Register(ws.schedule, task, asynq.Queue("default"))
	if err != nil {
		return err
	}
	ws.log.Infof("Orphan room purge registered with schedule '%s' (EntryID: %s)", ws.schedule, entryID)
	return nil
}

// Shutdown 先停止调度器，再优雅关闭 Worker 服务端
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	if ws.scheduler != nil {
		ws.scheduler.Shutdown()
	}
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}
