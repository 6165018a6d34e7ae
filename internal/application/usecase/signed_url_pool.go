package usecase

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dreschagin/motion-camera/internal/application/dto"
	"github.com/dreschagin/motion-camera/internal/application/port"
	"github.com/dreschagin/motion-camera/internal/domain/valueobject"
	"github.com/dreschagin/motion-camera/pkg/logger"
)

const retryRequestTimeout = 10 * time.Second

type SignedURLPoolConfig struct {
	IoTEndpoint  string
	Bucket       string
	BatchSize    int
	LowWaterMark int
	PollInterval time.Duration
	ForceEvery   int
	RetryBackoff time.Duration
	ExpiryMargin time.Duration
	DefaultTTL   time.Duration
}

func (c *SignedURLPoolConfig) applyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.LowWaterMark <= 0 {
		c.LowWaterMark = 5
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.ForceEvery <= 0 {
		c.ForceEvery = 10
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 30 * time.Second
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = 290 * time.Second
	}
}

// SignedURLPool очередь подписанных URL с пополнением через канал запрос/ответ.
// Выдача FIFO, каждая запись используется один раз.
// Пока запрос в полете, повторные непринудительные запросы не отправляются,
// вместо этого один раз откладывается повтор на RetryBackoff.
type SignedURLPool struct {
	requester port.SignedURLRequester
	replyTo   string
	config    SignedURLPoolConfig
	observer  port.PipelineObserver
	logger    *logger.Logger
	now       func() time.Time

	mu      sync.Mutex
	entries []valueobject.SignedURL
	pending bool
	retry   *time.Timer
	arrived chan struct{}
	closed  bool

	waitLog rate.Sometimes
}

func NewSignedURLPool(
	requester port.SignedURLRequester,
	replyTo string,
	config SignedURLPoolConfig,
	observer port.PipelineObserver,
	log *logger.Logger,
) *SignedURLPool {
	config.applyDefaults()
	if observer == nil {
		observer = port.NopPipelineObserver{}
	}

	return &SignedURLPool{
		requester: requester,
		replyTo:   replyTo,
		config:    config,
		observer:  observer,
		logger:    log,
		now:       time.Now,
		entries:   make([]valueobject.SignedURL, 0, config.BatchSize),
		arrived:   make(chan struct{}),
		waitLog:   rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
}

// Acquire выдает самый ранний действующий URL.
// Если пул пуст, ждет поступления URL, опрашивая пул с интервалом PollInterval;
// каждый ForceEvery-й опрос отправляет принудительный запрос.
// Ошибка возвращается только при отмене ctx.
func (p *SignedURLPool) Acquire(ctx context.Context) (string, error) {
	polls := 0

	for {
		p.mu.Lock()
		p.discardExpiredLocked()
		topOff := len(p.entries) == p.config.LowWaterMark

		var (
			signedURL string
			ok        bool
		)
		if len(p.entries) > 0 {
			signedURL, ok = p.entries[0].URL(), true
			p.entries[0] = valueobject.SignedURL{}
			p.entries = p.entries[1:]
		}
		arrived := p.arrived
		p.mu.Unlock()

		if topOff {
			p.Replenish(ctx, false)
		}
		if ok {
			return signedURL, nil
		}

		polls++
		p.waitLog.Do(func() {
			p.logger.Info("Waiting for requested signed URLs...", "polls", polls)
		})
		if polls%p.config.ForceEvery == 0 {
			p.Replenish(ctx, true)
		}

		timer := time.NewTimer(p.config.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-arrived:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Replenish запрашивает BatchSize новых URL.
// Непринудительный запрос при уже отправленном запросе откладывается на RetryBackoff.
func (p *SignedURLPool) Replenish(ctx context.Context, force bool) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if p.pending && !force {
		if p.retry == nil {
			p.retry = time.AfterFunc(p.config.RetryBackoff, p.retryRequest)
			p.logger.Debug("Signed URL request pending, retry deferred", "backoff", p.config.RetryBackoff)
		}
		p.mu.Unlock()
		return
	}
	p.pending = true
	p.mu.Unlock()

	request := dto.SignedURLRequest{
		IoTEndpoint: p.config.IoTEndpoint,
		Bucket:      p.config.Bucket,
		URLCount:    p.config.BatchSize,
		ReplyTo:     p.replyTo,
	}

	if err := p.requester.RequestSignedURLs(ctx, request); err != nil {
		p.logger.Error("Failed to request signed URLs", err, "count", request.URLCount)
		p.mu.Lock()
		p.pending = false
		p.mu.Unlock()
		return
	}

	p.observer.SignedURLsRequested(request.URLCount, force)
	p.logger.Info("Signed URLs requested", "count", request.URLCount, "forced", force)
}

func (p *SignedURLPool) retryRequest() {
	p.mu.Lock()
	p.retry = nil
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), retryRequestTimeout)
	defer cancel()

	p.Replenish(ctx, true)
}

// Receive добавляет URL из ответа сервиса выдачи и будит ожидающих
func (p *SignedURLPool) Receive(urls []string) {
	now := p.now()

	fresh := make([]valueobject.SignedURL, 0, len(urls))
	for _, raw := range urls {
		signedURL, err := valueobject.ParseSignedURL(raw, now, p.config.ExpiryMargin, p.config.DefaultTTL)
		if err != nil {
			p.logger.Warn("Skipping malformed signed URL", "error", err.Error())
			continue
		}
		if signedURL.Expired(now) {
			p.logger.Warn("Skipping already expired signed URL", "expires_at", signedURL.ExpiresAt())
			continue
		}
		fresh = append(fresh, signedURL)
	}

	p.mu.Lock()
	p.entries = append(p.entries, fresh...)
	p.pending = false
	if p.retry != nil {
		p.retry.Stop()
		p.retry = nil
	}
	close(p.arrived)
	p.arrived = make(chan struct{})
	available := len(p.entries)
	p.mu.Unlock()

	p.observer.SignedURLsReceived(len(fresh))
	p.logger.Info("Signed URLs received", "count", len(fresh), "available", available)
}

// Available число действующих URL в пуле
func (p *SignedURLPool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.discardExpiredLocked()
	return len(p.entries)
}

// Pending истинно, пока на последний запрос не пришел ответ
func (p *SignedURLPool) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Close отменяет отложенный повтор запроса
func (p *SignedURLPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.retry != nil {
		p.retry.Stop()
		p.retry = nil
	}
}

func (p *SignedURLPool) discardExpiredLocked() {
	now := p.now()

	kept := p.entries[:0]
	for _, entry := range p.entries {
		if !entry.Expired(now) {
			kept = append(kept, entry)
		}
	}
	if dropped := len(p.entries) - len(kept); dropped > 0 {
		p.logger.Debug("Discarded expired signed URLs", "count", dropped)
	}
	for i := len(kept); i < len(p.entries); i++ {
		p.entries[i] = valueobject.SignedURL{}
	}
	p.entries = kept
}
