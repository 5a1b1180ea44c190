package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelBookingHandler "github.com/m04kA/SMC-LessonService/internal/api/handlers/cancel_booking"
	confirmBookingHandler "github.com/m04kA/SMC-LessonService/internal/api/handlers/confirm_booking"
	createBookingHandler "github.com/m04kA/SMC-LessonService/internal/api/handlers/create_booking"
	createOverrideHandler "github.com/m04kA/SMC-LessonService/internal/api/handlers/create_override"
	declineBookingHandler "github.com/m04kA/SMC-LessonService/internal/api/handlers/decline_booking"
	deleteAvailabilityHandler "github.com/m04kA/SMC-LessonService/internal/api/handlers/delete_availability"
	deleteOverrideHandler "github.com/m04kA/SMC-LessonService/internal/api/handlers/delete_override"
	finishBookingHandler "github.com/m04kA/SMC-LessonService/internal/api/handlers/finish_booking"
	getAvailabilityHandler "github.com/m04kA/SMC-LessonService/internal/api/handlers/get_availability"
	getAvailableSlotsHandler "github.com/m04kA/SMC-LessonService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-LessonService/internal/api/handlers/get_booking"
	getBookingsHandler "github.com/m04kA/SMC-LessonService/internal/api/handlers/get_bookings"
	getMessagesHandler "github.com/m04kA/SMC-LessonService/internal/api/handlers/get_messages"
	getOverridesHandler "github.com/m04kA/SMC-LessonService/internal/api/handlers/get_overrides"
	getUnreadHandler "github.com/m04kA/SMC-LessonService/internal/api/handlers/get_unread"
	markThreadReadHandler "github.com/m04kA/SMC-LessonService/internal/api/handlers/mark_thread_read"
	putAvailabilityHandler "github.com/m04kA/SMC-LessonService/internal/api/handlers/put_availability"
	sendMessageHandler "github.com/m04kA/SMC-LessonService/internal/api/handlers/send_message"
	"github.com/m04kA/SMC-LessonService/internal/api/middleware"
	"github.com/m04kA/SMC-LessonService/internal/config"
	"github.com/m04kA/SMC-LessonService/internal/domain"
	"github.com/m04kA/SMC-LessonService/internal/events"
	"github.com/m04kA/SMC-LessonService/internal/infra/cache"
	availabilityRepo "github.com/m04kA/SMC-LessonService/internal/infra/storage/availability"
	bookingRepo "github.com/m04kA/SMC-LessonService/internal/infra/storage/booking"
	messageRepo "github.com/m04kA/SMC-LessonService/internal/infra/storage/message"
	"github.com/m04kA/SMC-LessonService/internal/infra/storage/migrations"
	userServiceClient "github.com/m04kA/SMC-LessonService/internal/integrations/userservice"
	"github.com/m04kA/SMC-LessonService/internal/jobs"
	availabilityService "github.com/m04kA/SMC-LessonService/internal/service/availability"
	bookingsService "github.com/m04kA/SMC-LessonService/internal/service/bookings"
	messagesService "github.com/m04kA/SMC-LessonService/internal/service/messages"
	confirmBookingUC "github.com/m04kA/SMC-LessonService/internal/usecase/confirm_booking"
	createBookingUC "github.com/m04kA/SMC-LessonService/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SMC-LessonService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-LessonService/pkg/dbmetrics"
	"github.com/m04kA/SMC-LessonService/pkg/logger"
	"github.com/m04kA/SMC-LessonService/pkg/metrics"
	"github.com/m04kA/SMC-LessonService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-LessonService...")
	log.Info("Configuration loaded from config.toml")

	// Коллектор создаем всегда, наружу /metrics отдаем только если метрики включены
	metricsCollector := metrics.New(cfg.Metrics.ServiceName)
	stopMetricsCh := make(chan struct{})

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Миграции
	if cfg.Database.AutoMigrate {
		migrator, err := migrations.NewMigrator(db, log)
		if err != nil {
			log.Fatal("Failed to init migrator: %v", err)
		}
		if err := migrator.Up(context.Background()); err != nil {
			log.Fatal("Failed to apply migrations: %v", err)
		}
	}

	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
	log.Info("Database metrics collection started")

	// Redis (кэш слотов и счетчиков непрочитанных)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis is unavailable at %s, continuing without cache: %v", cfg.Redis.Addr, err)
			_ = redisClient.Close()
			redisClient = nil
		} else {
			log.Info("Connected to Redis at %s", cfg.Redis.Addr)
		}
		cancelPing()
	}
	cacheRepository := cache.NewRepository(redisClient)
	defer cacheRepository.Close()

	// Шина событий: инвалидация кэша и публикация наружу
	bus := events.NewBus(log)
	bus.Subscribe(events.NewCacheInvalidator(cacheRepository).Handle)

	var kafkaPublisher *events.KafkaPublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher = events.NewKafkaPublisher(
			events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic),
			metricsCollector,
		)
		bus.Subscribe(kafkaPublisher.Handle)
		log.Info("Kafka publisher enabled (brokers=%v, topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	// Репозитории
	bookingRepository := bookingRepo.NewRepository(wrappedDB)
	availabilityRepository := availabilityRepo.NewRepository(wrappedDB)
	messageRepository := messageRepo.NewRepository(wrappedDB)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Интеграционные клиенты
	userClient := userServiceClient.NewClient(
		cfg.UserService.URL,
		time.Duration(cfg.UserService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (UserService=%s timeout=%ds)",
		cfg.UserService.URL, cfg.UserService.Timeout)

	loc := cfg.Scheduling.Location()
	policy := domain.LifecyclePolicy{
		CancellationWindow: cfg.Scheduling.CancellationWindow(),
		PendingTTL:         cfg.Scheduling.PendingTTL(),
	}
	log.Info("Scheduling: timezone=%s, cancellation_window=%s, pending_ttl=%s",
		loc, policy.CancellationWindow, policy.PendingTTL)

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		txMgr,
		bus,
		metricsCollector,
		policy,
		loc,
		log,
	)
	availabilitySvc := availabilityService.NewService(
		availabilityRepository,
		bookingRepository,
		txMgr,
		bus,
		metricsCollector,
		loc,
		cfg.Scheduling.DefaultSlotDurationMinutes,
		log,
	)
	messagesSvc := messagesService.NewService(
		bookingRepository,
		messageRepository,
		userClient,
		cacheRepository,
		txMgr,
		bus,
		metricsCollector,
		time.Duration(cfg.Redis.UnreadTTL)*time.Second,
		log,
	)

	// Инициализируем use cases
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		bookingRepository,
		availabilityRepository,
		cacheRepository,
		metricsCollector,
		getAvailableSlotsUC.Options{
			Location:            loc,
			MaxRangeDays:        cfg.Scheduling.MaxRangeDays,
			MinBookingNotice:    time.Duration(cfg.Scheduling.MinBookingNoticeMinutes) * time.Minute,
			DefaultSlotDuration: cfg.Scheduling.DefaultSlotDurationMinutes,
			CacheTTL:            time.Duration(cfg.Redis.SlotsTTL) * time.Second,
		},
		log,
	)

	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		availabilityRepository,
		userClient,
		txMgr,
		bus,
		metricsCollector,
		createBookingUC.Options{
			Location:            loc,
			MinBookingNotice:    time.Duration(cfg.Scheduling.MinBookingNoticeMinutes) * time.Minute,
			DefaultSlotDuration: cfg.Scheduling.DefaultSlotDurationMinutes,
		},
		log,
	)

	confirmBookingUseCase := confirmBookingUC.NewUseCase(
		bookingRepository,
		txMgr,
		bus,
		metricsCollector,
		policy,
		log,
	)

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	confirmBooking := confirmBookingHandler.NewHandler(confirmBookingUseCase, log)
	declineBooking := declineBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	finishBooking := finishBookingHandler.NewHandler(bookingSvc, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getBookings := getBookingsHandler.NewHandler(bookingSvc, log)

	getAvailability := getAvailabilityHandler.NewHandler(availabilitySvc, log)
	putAvailability := putAvailabilityHandler.NewHandler(availabilitySvc, log)
	deleteAvailability := deleteAvailabilityHandler.NewHandler(availabilitySvc, log)
	getOverrides := getOverridesHandler.NewHandler(availabilitySvc, log)
	createOverride := createOverrideHandler.NewHandler(availabilitySvc, log)
	deleteOverride := deleteOverrideHandler.NewHandler(availabilitySvc, log)

	getUnread := getUnreadHandler.NewHandler(messagesSvc, log)
	getMessages := getMessagesHandler.NewHandler(messagesSvc, log)
	sendMessage := sendMessageHandler.NewHandler(messagesSvc, log)
	markThreadRead := markThreadReadHandler.NewHandler(messagesSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.MetricsMiddleware(metricsCollector))

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// Health checks
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	r.HandleFunc("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			log.Warn("GET /readyz - Database is not ready: %v", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if err := cacheRepository.Ping(ctx); err != nil {
			log.Warn("GET /readyz - Redis is not ready: %v", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Свободные слоты инструктора
	api.HandleFunc("/instructors/{instructorId}/slots", getAvailableSlots.Handle).Methods(http.MethodGet)

	// Недельное расписание и исключения инструктора
	api.HandleFunc("/instructors/{instructorId}/availability", getAvailability.Handle).Methods(http.MethodGet)
	api.HandleFunc("/instructors/{instructorId}/overrides", getOverrides.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)
	if cfg.RateLimit.Enabled {
		protected.Use(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware)
		log.Info("Rate limiting enabled (rps=%.1f, burst=%d)", cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	// --- Расписание инструктора ---
	protected.HandleFunc("/instructors/{instructorId}/availability", putAvailability.Handle).Methods(http.MethodPut)
	protected.HandleFunc("/availability/{availabilityId}", deleteAvailability.Handle).Methods(http.MethodDelete)
	protected.HandleFunc("/instructors/{instructorId}/overrides", createOverride.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/overrides/{overrideId}", deleteOverride.Handle).Methods(http.MethodDelete)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings", getBookings.Handle).Methods(http.MethodGet)

	// unread регистрируем до {bookingId}
	protected.HandleFunc("/bookings/unread", getUnread.Handle).Methods(http.MethodGet)

	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/confirm", confirmBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/decline", declineBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/complete", finishBooking.HandleComplete).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/no-show", finishBooking.HandleNoShow).Methods(http.MethodPatch)

	// --- Переписка ---
	protected.HandleFunc("/bookings/{bookingId}/messages", getMessages.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/messages", sendMessage.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}/messages/read", markThreadRead.Handle).Methods(http.MethodPost)

	// Фоновое закрытие просроченных заявок
	jobsCtx, stopJobs := context.WithCancel(context.Background())
	expiryWorker := jobs.NewExpiryWorker(bookingSvc, cfg.Scheduling.SweepInterval(), log)
	go expiryWorker.Run(jobsCtx)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	stopJobs()

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			log.Error("Failed to close kafka writer: %v", err)
		}
	}

	log.Info("Server stopped gracefully")
}
