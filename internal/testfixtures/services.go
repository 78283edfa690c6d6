package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/availability"
	"github.com/example/room-booking/internal/recurrence"
	"github.com/example/room-booking/internal/roomlock"
)

// ServiceFactory builds application services with deterministic ids and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory returns a factory with a one-second stepping clock starting three days
// before ReferenceTime and a silent logger.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewSteppingClock(referenceTime.Add(-72*time.Hour), time.Second),
		IDGenerator: NewIDGenerator("id"),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Clock = clock }
}

func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.IDGenerator = generator }
}

func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Logger = logger }
}

// Services is a fully wired set of application services over one store.
type Services struct {
	Rooms     *application.RoomService
	Bookings  *application.BookingService
	Analytics *application.AnalyticsService
	Locker    *roomlock.LocalLocker
}

// ServiceOptions tunes the booking service built by Wire.
type ServiceOptions struct {
	Window         availability.Window
	MaxOccurrences int
	Publisher      application.EventPublisher
}

// Wire builds every service over h's repositories with an in-process room locker.
func (f *ServiceFactory) Wire(h *StoreHarness, opts ServiceOptions) Services {
	now := f.Clock.NowFunc()
	ids := f.IDGenerator.NextFunc()
	audit := application.NewAuditTrail(h.Repos.Audit, opts.Publisher, ids, now, f.Logger)
	locker := roomlock.NewLocalLocker()

	return Services{
		Rooms: application.NewRoomServiceWithLogger(h.Repos.Rooms, audit, ids, now, f.Logger),
		Bookings: application.NewBookingService(application.BookingServiceDeps{
			Rooms:       h.Repos.Rooms,
			Requests:    h.Repos.Requests,
			Locker:      locker,
			Audit:       audit,
			Engine:      recurrence.NewEngine(opts.MaxOccurrences),
			Window:      opts.Window,
			IDGenerator: ids,
			Now:         now,
			Logger:      f.Logger,
		}),
		Analytics: application.NewAnalyticsServiceWithLogger(h.Repos.Stats, h.Repos.Audit, f.Logger),
		Locker:    locker,
	}
}
