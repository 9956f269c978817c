package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moth/config"
	"moth/internal/api"
	"moth/internal/driver"
	"moth/internal/engine"
	"moth/internal/frames"
	"moth/internal/health"
	"moth/internal/lease"
	"moth/internal/logs"
	"moth/internal/middleware"
	"moth/internal/transport"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type App struct {
	cfg        *config.Config
	Router     *mux.Router
	httpServer *http.Server

	reg     *engine.Registry
	radio   driver.Radio
	handler driver.Handler
	sched   *engine.Scheduler

	closers []io.Closer

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) {
	a.cfg = cfg

	/* 1) Логи */
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	/* 2) Приёмники потока */
	writer, closer, err := transport.OpenTarget(a.cfg.Stream.Target)
	if err != nil {
		log.Fatalf("stream target open failed: %v", err)
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	// скорость порта выставляет потребитель на своей стороне; наша — в логе
	// для сверки
	logs.Logger.Infof("stream target %s (baud %d)", a.cfg.Stream.Target, a.cfg.Stream.SerialBaud)
	sinks := transport.MultiSink{writer}

	var mqttReady func() error
	if a.cfg.Stream.MQTTBroker != "" {
		m, err := transport.NewMQTTSink(a.cfg.Stream.MQTTBroker,
			"moth-"+uuid.NewString()[:8], a.cfg.Stream.MQTTTopic)
		if err != nil {
			log.Fatalf("mqtt sink failed: %v", err)
		}
		sinks = append(sinks, m)
		a.closers = append(a.closers, m)
		mqttReady = m.Ready
	}

	/* 3) Реестр и радиоподсистема */
	a.reg = engine.NewRegistry(a.cfg.Sensor.MaxDevices, sinks)

	gw, subnet, err := net.ParseCIDR(a.cfg.AP.GatewayCIDR)
	if err != nil {
		log.Fatalf("bad ap.gateway_cidr: %v", err) // validate() это уже ловил
	}
	// реальный радиобэкенд живёт вне процесса; пока поднимаем
	// сценарный, как раньше поднимали in-memory store без БД
	a.radio = driver.NewReplay(gw, driver.DemoScript(), true)
	if err := a.radio.Configure(driver.APProfile{
		SSID:       a.cfg.AP.SSID,
		Passphrase: a.cfg.AP.Passphrase,
		Channel:    a.cfg.AP.Channel,
		MaxClients: a.cfg.AP.MaxClients,
	}); err != nil {
		log.Fatalf("radio configure failed: %v", err)
	}

	cls := frames.NewClassifier(a.cfg.Sensor.RSSIFloor)
	dec := driver.NewDecoder(a.radio, a.cfg.Sensor.RSSIFloor)
	a.handler = newSensorHandler(a.reg, cls, dec)

	assign, err := lease.New(a.reg, a.radio, subnet)
	if err != nil {
		log.Fatalf("lease approximator failed: %v", err)
	}
	a.sched = engine.NewScheduler(a.reg, assign,
		time.Duration(a.cfg.Sensor.StatsIntervalMS)*time.Millisecond)

	/* 4) Router + middleware */
	a.Router = mux.NewRouter().StrictSlash(true)
	a.Router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.LoggerMW,
	)

	/* 5) Health + API */
	if mqttReady != nil {
		health.RegisterRoutesWithCheck(a.Router, mqttReady) // /healthz, /readyz
	} else {
		health.RegisterRoutes(a.Router) // только /healthz
	}
	api.RegisterRoutes(a.Router, api.New(a.reg))

	/* (необязательно) вывести известные маршруты в лог при старте */
	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		log.Printf("route: %-6v %s", methods, path)
		return nil
	})
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logs.Logger.Infof("shutdown signal: %s", s)
		a.cancel()
	}()

	// радиоколбэки и кооперативный цикл — каждый в своей горутине
	go func() {
		if err := a.radio.Run(a.ctx, a.handler); err != nil && err != context.Canceled {
			logs.Component("radio").Errorf("run: %v", err)
		}
	}()
	go a.sched.Run(a.ctx)

	// Жёсткие таймауты — это важно для production
	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Logger.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	for _, c := range a.closers {
		_ = c.Close()
	}
	return nil
}
