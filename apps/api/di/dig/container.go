package dig_container

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	echoapi "github.com/Heetpatel09/TimeWise-sub001/apps/api/echo"
	"github.com/Heetpatel09/TimeWise-sub001/core"
	"github.com/Heetpatel09/TimeWise-sub001/core/allocation"
	"github.com/Heetpatel09/TimeWise-sub001/core/roster"
	logsvc "github.com/Heetpatel09/TimeWise-sub001/services/logger"
	metricsvc "github.com/Heetpatel09/TimeWise-sub001/services/metrics"
	"github.com/Heetpatel09/TimeWise-sub001/storage"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStores(conf *core.Config, loggerParam DBLoggerParam) (storage.Stores, roster.Repository, allocation.Repository) {
	stores, err := storage.Open(conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up %s storage: %v", conf.Storage.Driver, err), err)
	}
	return stores, stores.Roster, stores.Allotments
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

func newRegistry() (*prometheus.Registry, prometheus.Registerer, prometheus.Gatherer) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg, reg, reg
}

func newAllocator(conf *core.Config) *allocation.Allocator {
	if conf.Allocation.Seed == 0 {
		return allocation.NewAllocator(nil)
	}
	return allocation.NewAllocator(rand.NewSource(conf.Allocation.Seed))
}

type serverParams struct {
	dig.In
	Conf          *core.Config
	Logger        core.Logger
	RosterSvc     *roster.Service
	AllocationSvc *allocation.Service
	Validate      *validator.Validate
	Translator    ut.Translator
	Gatherer      prometheus.Gatherer
}

func newServer(p serverParams) *echoapi.Server {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	return echoapi.NewServer(p.Conf.Server.Addr, shutdown, &echoapi.Deps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		RosterSvc:     p.RosterSvc,
		AllocationSvc: p.AllocationSvc,
		Validate:      p.Validate,
		Translator:    p.Translator,
		Gatherer:      p.Gatherer,
	})
}

// New returns a new dependency injection dig.Container
func New(newConfig func() *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStores))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newRegistry))
	must(c.Provide(metricsvc.NewPrometheus, dig.As(new(allocation.Metrics))))
	must(c.Provide(newAllocator))
	must(c.Provide(roster.NewService))
	must(c.Provide(allocation.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
