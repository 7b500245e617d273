package loader

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/AGPFMiner/fpgaloader/config"
	"github.com/AGPFMiner/fpgaloader/script"
	"github.com/AGPFMiner/fpgaloader/types"
	"github.com/AGPFMiner/fpgaloader/vivado"

	"github.com/jinzhu/copier"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var atom = zap.NewAtomicLevel()
var logger *zap.Logger

func selectZapLevel(loglevel string) zapcore.Level {
	var level zapcore.Level
	switch loglevel {
	case "debug":
		level = zap.DebugLevel
	case "info":
		level = zap.InfoLevel
	case "error":
		level = zap.ErrorLevel
	default:
		level = zap.InfoLevel
	}
	return level
}

func initLogger(loglevel string) *zap.Logger {
	level := selectZapLevel(loglevel)
	encoderCfg := zap.NewProductionEncoderConfig()
	logger = zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		atom,
	))
	defer logger.Sync()
	atom.SetLevel(level)
	return logger
}

const (
	scriptFileName = "load_bitstream.tcl"
	resultFileName = "load_bitstream.result"
)

// Runner executes the vendor toolchain against a materialized script
// and returns its combined output, one string per line.
type Runner interface {
	Run(scriptPath string) ([]string, error)
}

// Resetter re-enumerates a PCI function after a successful load.
type Resetter interface {
	HotReset(device string) error
}

//Loader drives one bitstream deployment end to end
type Loader struct {
	Config   config.RunConfig
	Runner   Runner
	Resetter Resetter
	LogLevel string

	logger *zap.Logger
	euid   func() int

	statusLock sync.RWMutex
	status     types.RunStates
}

func New(cfg config.RunConfig, runner Runner, resetter Resetter, loglevel string) *Loader {
	l := &Loader{
		Runner:   runner,
		Resetter: resetter,
		LogLevel: loglevel,
		logger:   initLogger(loglevel),
		euid:     os.Geteuid,
		status: types.RunStates{
			State:     types.Idle,
			Bitstream: cfg.Bitstream,
		},
	}
	// A plain assignment would share the script's backing array with
	// the caller; watch re-runs must expand the script as loaded.
	copier.Copy(&l.Config, &cfg)
	return l
}

// Run performs one deployment: expand the programming script, write it
// out, run the toolchain, persist and classify its log, and hot-reset
// the card if that was requested. Exactly one tool invocation happens
// per call.
func (l *Loader) Run() error {
	err := l.deploy()
	if err != nil {
		l.setStatus(types.Failed, "failed", err.Error())
		return err
	}
	l.setStatus(types.Done, "success", "")
	return nil
}

func (l *Loader) deploy() error {
	if l.euid() != 0 {
		return &RunError{Kind: KindPrivilege, Msg: "must be root to run, use sudo"}
	}

	lines := script.Expand(l.Config.ProgrammingScript, map[string]string{
		"file": l.Config.Bitstream,
	})

	tclPath := filepath.Join(l.Config.TmpDir, scriptFileName)
	resultPath := filepath.Join(l.Config.TmpDir, resultFileName)

	if err := script.WriteLines(lines, tclPath); err != nil {
		return &RunError{Kind: KindScriptWrite, Msg: "can't write " + tclPath, Err: err}
	}

	l.setStatus(types.Programming, "", "")
	l.logger.Info("vivado",
		zap.String("bitstream", l.Config.Bitstream),
		zap.String("script", tclPath))

	out, err := l.Runner.Run(tclPath)
	if err != nil {
		return &RunError{Kind: KindSpawn, Msg: "can't run " + l.Config.Vivado, Err: err}
	}

	// Best-effort: the run is not failed over a missing result log.
	if err := script.WriteLines(out, resultPath); err != nil {
		l.logger.Warn("result log not written", zap.String("path", resultPath), zap.Error(err))
	}

	switch oc := vivado.Classify(out); oc.Kind {
	case vivado.OutcomeUnavailable:
		return &RunError{Kind: KindToolUnavailable, Msg: "can't run " + l.Config.Vivado}
	case vivado.OutcomeError:
		return &RunError{Kind: KindToolError, Msg: "vivado reports '" + oc.Line + "'"}
	}

	l.logger.Info("vivado", zap.String("stat", "bitstream loaded"), zap.Int("loglines", len(out)))

	// Never reset after a failed load; a failed reset after a good
	// load is still the run's failure.
	if l.Config.HotReset {
		l.setStatus(types.Resetting, "", "")
		l.logger.Info("hotreset", zap.String("device", l.Config.PCIDevice))
		if err := l.Resetter.HotReset(l.Config.PCIDevice); err != nil {
			return &RunError{Kind: KindHotReset, Msg: "hot reset " + l.Config.PCIDevice, Err: err}
		}
	}
	return nil
}

func (l *Loader) setStatus(state types.RunState, outcome, detail string) {
	l.statusLock.Lock()
	defer l.statusLock.Unlock()
	l.status.State = state
	if outcome != "" || state == types.Done || state == types.Failed {
		l.status.Outcome = outcome
		l.status.Detail = detail
		l.status.Runs++
		l.status.LastRun = time.Now().Unix()
	}
}

// RunStates returns a snapshot of the last run for the status API.
func (l *Loader) RunStates() types.RunStates {
	l.statusLock.RLock()
	defer l.statusLock.RUnlock()
	return l.status
}
