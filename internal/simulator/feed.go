package simulator

import (
	"sync"
	"time"

	"soilsense/internal/models"

	"github.com/rs/zerolog"
)

// DefaultInterval período padrão entre leituras ao vivo
const DefaultInterval = 5 * time.Second

// Callback recebe cada nova leitura ao vivo
type Callback func(models.SensorReading)

// Sink persiste as leituras geradas
type Sink interface {
	Append(reading models.SensorReading) error
}

// Feed agenda a geração periódica de leituras e notifica os inscritos.
// Existe no máximo um ticker ativo por vez.
type Feed struct {
	generator   *Generator
	sink        Sink
	logger      zerolog.Logger
	subscribers []Callback
	onSinkError func(error)
	interval    time.Duration
	running     bool
	stopChan    chan struct{}
	doneChan    chan struct{}
	startTime   time.Time
	ticks       int64
	mutex       sync.RWMutex
	emitMutex   sync.Mutex
	lifecycle   sync.Mutex
}

// NewFeed cria novo alimentador ao vivo
func NewFeed(generator *Generator, sink Sink, logger zerolog.Logger) *Feed {
	return &Feed{
		generator: generator,
		sink:      sink,
		logger:    logger.With().Str("component", "feed").Logger(),
		interval:  DefaultInterval,
	}
}

// OnLiveData inscreve um callback; a ordem de inscrição é a ordem de chamada
func (f *Feed) OnLiveData(cb Callback) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.subscribers = append(f.subscribers, cb)
}

// OnSinkError define o callback chamado quando a persistência falha
func (f *Feed) OnSinkError(fn func(error)) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.onSinkError = fn
}

// Start para o ticker anterior (se houver), emite uma leitura imediatamente
// e passa a emitir a cada interval. interval <= 0 usa DefaultInterval.
func (f *Feed) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	f.lifecycle.Lock()
	defer f.lifecycle.Unlock()

	f.stop()
	f.emit()

	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.interval = interval
	f.running = true
	f.startTime = time.Now()
	f.stopChan = make(chan struct{})
	f.doneChan = make(chan struct{})

	go f.loop(interval, f.stopChan, f.doneChan)

	f.logger.Info().Dur("interval", interval).Msg("live feed started")
}

// Stop para o ticker ativo e aguarda a goroutine terminar. Idempotente.
// Callbacks não devem chamar Stop.
func (f *Feed) Stop() {
	f.lifecycle.Lock()
	defer f.lifecycle.Unlock()
	f.stop()
}

func (f *Feed) stop() {
	f.mutex.Lock()
	if !f.running {
		f.mutex.Unlock()
		return
	}
	f.running = false
	close(f.stopChan)
	done := f.doneChan
	f.mutex.Unlock()

	<-done
	f.logger.Info().Msg("live feed stopped")
}

// IsRunning verifica se o ticker está ativo
func (f *Feed) IsRunning() bool {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.running
}

// Status retorna o estado atual do alimentador
func (f *Feed) Status() models.FeedStatus {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	status := models.FeedStatus{
		Running:     f.running,
		IntervalMS:  f.interval.Milliseconds(),
		Ticks:       f.ticks,
		Subscribers: len(f.subscribers),
	}
	if f.running {
		status.UptimeSeconds = time.Since(f.startTime).Seconds()
	}
	return status
}

func (f *Feed) loop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.emit()
		case <-stop:
			return
		}
	}
}

// emit gera, persiste e notifica. Emissões são serializadas para que cada
// leitura seja entregue a todos antes da próxima ser gerada.
func (f *Feed) emit() {
	f.emitMutex.Lock()
	defer f.emitMutex.Unlock()

	reading := f.generator.Step()
	sinkErr := f.sink.Append(reading)

	f.mutex.Lock()
	f.ticks++
	subscribers := make([]Callback, len(f.subscribers))
	copy(subscribers, f.subscribers)
	onSinkError := f.onSinkError
	f.mutex.Unlock()

	if sinkErr != nil {
		f.logger.Error().Err(sinkErr).Msg("failed to persist live reading")
		if onSinkError != nil {
			onSinkError(sinkErr)
		}
	}

	for _, cb := range subscribers {
		cb(reading)
	}
}
