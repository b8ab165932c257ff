package worker

import (
	"context"
	"errors"
	"log"
	"runtime"
	"sync"
	"time"
)

// Task 异步任务接口
type Task interface {
	Execute()
}

// funcTask 包装函数为任务
type funcTask struct {
	fn func()
}

func (t *funcTask) Execute() {
	t.fn()
}

// Pool 有界协程池
// 图片合成与压缩是每个请求的主要 CPU 开销，全部经过此池执行，
// 以限制并发合成数量，避免图片负载压垮请求接收
type Pool struct {
	workers int
	queue   chan Task
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	mu      sync.Mutex
}

// NewPool 创建工作池
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers < 2 {
			workers = 2
		}
	}
	if queueSize <= 0 {
		queueSize = 256
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers: workers,
		queue:   make(chan Task, queueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start 启动工作池
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	p.started = true
	log.Printf("Worker pool started with %d workers", p.workers)
}

// Stop 停止工作池，等待在执行的任务结束
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	p.mu.Lock()
	p.started = false
	p.mu.Unlock()

	log.Println("Worker pool stopped")
}

// Submit 提交任务（非阻塞，队列满时丢弃）
func (p *Pool) Submit(task Task) bool {
	select {
	case p.queue <- task:
		return true
	case <-p.ctx.Done():
		return false
	default:
		log.Println("WARN: Worker pool queue is full, task dropped")
		return false
	}
}

// SubmitBlocking 阻塞提交任务，队列满时等待（timeout<=0 表示无限期等待）
func (p *Pool) SubmitBlocking(task Task, timeout time.Duration) bool {
	if timeout <= 0 {
		select {
		case p.queue <- task:
			return true
		case <-p.ctx.Done():
			return false
		}
	}

	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	select {
	case p.queue <- task:
		return true
	case <-ctx.Done():
		return false
	}
}

// Do 提交函数并等待执行完成
// 供请求协程同步卸载 CPU 密集工作；ctx 取消时提前返回，
// 此时任务可能仍会执行，但结果被丢弃
func (p *Pool) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	task := &funcTask{fn: func() {
		defer close(done)
		fn()
	}}

	if !p.SubmitBlocking(task, 0) {
		return errors.New("worker pool is stopped")
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Go 异步提交函数（非阻塞，队列满时丢弃）
func (p *Pool) Go(fn func()) bool {
	return p.Submit(&funcTask{fn: fn})
}

// worker 工作协程
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case task := <-p.queue:
			p.executeTask(task)
		case <-p.ctx.Done():
			return
		}
	}
}

// executeTask 执行任务并捕获 panic
func (p *Pool) executeTask(task Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic recovered in worker task: %v", r)
		}
	}()
	task.Execute()
}
