package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/gridsearch"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/repository"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type worker struct {
	cfg    *config.Config
	repo   *repository.Repository
	rdb    *redis.Client
	ch     *amqp.Channel
	logger *slog.Logger
}

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer pingCancel()
	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer rdb.Close()

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	// 实验结束后需要往邮件队列投递通知，因此两个队列都要声明
	for _, queue := range []string{cfg.RabbitMQ.ExperimentQueue, cfg.RabbitMQ.MailQueue} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			logger.Error("无法声明队列", slog.String("queue", queue), slog.String("error", err.Error()))
			return
		}
	}

	// 一次只取一个实验，实验本身已经是并行执行的
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("无法设置预取数量", slog.String("error", err.Error()))
		return
	}

	msgs, err := ch.Consume(
		cfg.RabbitMQ.ExperimentQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		return
	}

	w := &worker{
		cfg:    cfg,
		repo:   repository.NewRepository(cfg, dbpool),
		rdb:    rdb,
		ch:     ch,
		logger: logger,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Error("消息通道已关闭")
					return
				}

				// 关闭时可能同时收到新消息，放回队列交给下一个 worker
				if ctx.Err() != nil {
					_ = msg.Nack(false, true)
					return
				}

				job := domain.ExperimentJob{}
				if err := json.Unmarshal(msg.Body, &job); err != nil {
					logger.Error("实验任务反序列化失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				requeue, err := w.process(ctx, job)
				if err != nil {
					logger.Error("实验任务处理失败", slog.Int64("experimentID", job.ExperimentID), slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}
				if requeue {
					_ = msg.Nack(false, true)
					continue
				}

				_ = msg.Ack(false)
			}
		}
	}()

	logger.Info("等待实验任务...（按 CTRL+C 退出）")
	<-sigChan

	slog.Info("正在关闭 experiment worker...")
	cancel()
	wg.Wait()
	slog.Info("experiment worker 已成功关闭")
}

// outcome 一次实验运行结束后的去向
type outcome int

const (
	outcomeFinished    outcome = iota // 保存结果并通知
	outcomeFailed                     // 记录错误并通知
	outcomeInterrupted                // worker 正在关闭，放回队列
)

// decide 只有 worker 自己的上下文被取消导致的中断才放回队列，其余错误都算实验失败
func decide(ctx context.Context, runErr error) outcome {
	switch {
	case runErr == nil:
		return outcomeFinished
	case ctx.Err() != nil && errors.Is(runErr, context.Canceled):
		return outcomeInterrupted
	default:
		return outcomeFailed
	}
}

// process 执行一次实验，返回消息是否需要重新入队
// 只有数据库或队列本身出错时才返回错误，实验失败会记录在实验状态中
func (w *worker) process(ctx context.Context, job domain.ExperimentJob) (bool, error) {
	logger := w.logger.With(slog.Int64("experimentID", job.ExperimentID), slog.String("jobID", job.JobID))

	e, err := w.repo.GetExperimentByID(job.ExperimentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Warn("实验不存在，忽略该任务")
			return false, nil
		}
		return false, err
	}

	if err := w.repo.StartExperiment(e); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// 实验已经被执行过，可能是消息被重复投递
			logger.Warn("实验不处于等待状态，忽略该任务", slog.String("status", string(e.Status)))
			return false, nil
		}
		return false, err
	}

	logger.Info("开始执行实验", slog.Int("combinations", len(e.Combinations)), slog.Int("runs", e.Settings.Runs))
	start := time.Now()

	results, runErr := w.run(ctx, e)
	switch decide(ctx, runErr) {
	case outcomeInterrupted:
		logger.Warn("worker 正在关闭，实验放回队列")
		if err := w.repo.ResetExperiment(e); err != nil {
			return false, err
		}
		return true, nil
	case outcomeFailed:
		logger.Error("实验运行失败", slog.String("error", runErr.Error()))
		if err := w.repo.FailExperiment(e, runErr.Error()); err != nil {
			return false, err
		}
	case outcomeFinished:
		if err := w.repo.FinishExperiment(e, domain.NewExperimentResult(e.ID, results)); err != nil {
			return false, err
		}
		logger.Info("实验完成", slog.Duration("elapsed", time.Since(start)))
	}

	return false, w.notify(e, results, runErr)
}

func (w *worker) run(ctx context.Context, e *domain.Experiment) (*gridsearch.Results, error) {
	sheet, err := w.repo.GetRelationshipSheetByID(e.RelationshipSheetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("关系表不存在")
		}
		return nil, err
	}

	rel, err := utils.ValidateRelationshipSheet(sheet)
	if err != nil {
		return nil, err
	}

	runner, err := gridsearch.NewRunner(rel, e.Settings,
		gridsearch.WithLogger(w.logger.With(slog.Int64("experimentID", e.ID))),
		gridsearch.WithProgress(w.progressReporter(e.JobID)),
	)
	if err != nil {
		return nil, err
	}

	return runner.Run(ctx, e.Combinations)
}

// progressReporter 把进度写入 redis，进度回调会被多个 goroutine 同时调用，只保留最大的进度
func (w *worker) progressReporter(jobID string) gridsearch.ProgressFunc {
	key := domain.ExperimentProgressKey(jobID)
	expiration := time.Duration(w.cfg.Redis.ProgressExpiration) * time.Second

	var mu sync.Mutex
	latest := 0

	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()

		if done <= latest {
			return
		}
		latest = done

		body, err := json.Marshal(domain.ExperimentProgress{Done: done, Total: total})
		if err != nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(w.cfg.Redis.OperationExpiration)*time.Second)
		defer cancel()
		if err := w.rdb.Set(ctx, key, body, expiration).Err(); err != nil {
			w.logger.Warn("无法写入实验进度", slog.String("jobID", jobID), slog.String("error", err.Error()))
		}
	}
}

// notify 给实验的创建者发送结果通知邮件
func (w *worker) notify(e *domain.Experiment, results *gridsearch.Results, runErr error) error {
	user, err := w.repo.GetUserByID(e.CreatedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}

	data := domain.ExperimentFinishedMailData{
		FullName:       user.FullName,
		ExperimentID:   e.ID,
		ExperimentName: e.Name,
		Succeeded:      runErr == nil,
	}
	if runErr != nil {
		data.Error = runErr.Error()
	} else if ranked := gridsearch.Rank(results.Summarize()); len(ranked) > 0 {
		data.BestCombination = ranked[0].Name
		data.BestFinalMean = ranked[0].Final()
	}

	body, err := json.Marshal(domain.MailMessage{
		Type: domain.MailTypeExperimentFinished,
		To:   user.Email,
		Data: data,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(w.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return w.ch.PublishWithContext(ctx, "", w.cfg.RabbitMQ.MailQueue, true, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}
