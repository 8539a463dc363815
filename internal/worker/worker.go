// Package worker 固定大小的协程池，用于批量后台任务
package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/anoixa/image-gallery/utils/logger"
	"go.uber.org/zap"
)

const defaultQueueSize = 1000

// Task 池中执行的任务
type Task func()

// Stats 池运行统计
type Stats struct {
	WorkerCount int
	QueueLen    int
	QueueCap    int
	Submitted   uint64
	Executed    uint64
	Failed      uint64 // panic 的任务
}

// Pool 协程池，Stop 会等待已入队的任务执行完
type Pool struct {
	workers int
	queue   chan Task
	wg      sync.WaitGroup

	mu      sync.RWMutex
	stopped bool

	submitted atomic.Uint64
	executed  atomic.Uint64
	failed    atomic.Uint64
}

// NewPool 创建并启动协程池，workers 与 queueSize 非正时使用默认值
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	p := &Pool{
		workers: workers,
		queue:   make(chan Task, queueSize),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit 非阻塞提交，队列已满或池已停止时返回 false
func (p *Pool) Submit(task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return false
	}
	select {
	case p.queue <- task:
		p.submitted.Add(1)
		return true
	default:
		logger.Warn("Worker pool queue is full, task dropped")
		return false
	}
}

// SubmitWait 队列满时等待，直到入队成功或 ctx 结束
func (p *Pool) SubmitWait(ctx context.Context, task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return false
	}
	select {
	case p.queue <- task:
		p.submitted.Add(1)
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop 停止接收任务并等待队列清空，可重复调用
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

// GetStats 返回当前统计
func (p *Pool) GetStats() Stats {
	return Stats{
		WorkerCount: p.workers,
		QueueLen:    len(p.queue),
		QueueCap:    cap(p.queue),
		Submitted:   p.submitted.Load(),
		Executed:    p.executed.Load(),
		Failed:      p.failed.Load(),
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.queue {
		if task == nil {
			continue
		}
		p.execute(task)
	}
}

// execute 执行任务并捕获 panic
func (p *Pool) execute(task Task) {
	defer func() {
		p.executed.Add(1)
		if r := recover(); r != nil {
			p.failed.Add(1)
			logger.Error("Panic recovered in worker task", zap.Any("panic", r))
		}
	}()
	task()
}
