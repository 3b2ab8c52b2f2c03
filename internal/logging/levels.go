package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultLevel applies when neither STLC_LOG_<PKG> nor STLC_LOG is set.
// Command line output goes to stdout, so stderr logging stays quiet by default.
const DefaultLevel = 'W'

// PkgLevel represents log level of a package.
type PkgLevel struct {
	pkg string
	lvl byte
	al  zap.AtomicLevel
}

// Package returns package name.
func (pl *PkgLevel) Package() string {
	return pl.pkg
}

// Level returns log level as a letter.
func (pl *PkgLevel) Level() byte {
	return pl.lvl
}

// SetLevel assigns log level.
// Accepted letters are V D I W E F N; anything else selects DefaultLevel.
func (pl *PkgLevel) SetLevel(input string) {
	if len(input) == 0 {
		input = string(rune(DefaultLevel))
	}

	switch input[0] {
	case 'V', 'D':
		pl.al.SetLevel(zap.DebugLevel)
	case 'I':
		pl.al.SetLevel(zap.InfoLevel)
	case 'W':
		pl.al.SetLevel(zap.WarnLevel)
	case 'E':
		pl.al.SetLevel(zap.ErrorLevel)
	case 'F', 'N':
		pl.al.SetLevel(zap.DPanicLevel)
	default:
		pl.SetLevel("")
		return
	}
	pl.lvl = input[0]
}

var (
	pkgLevelsLock sync.Mutex
	pkgLevels     = map[string]*PkgLevel{}
)

// GetLevel finds or creates package log level object.
func GetLevel(pkg string) (pl *PkgLevel) {
	pkgLevelsLock.Lock()
	defer pkgLevelsLock.Unlock()
	pl = pkgLevels[pkg]
	if pl == nil {
		pl = &PkgLevel{
			pkg: pkg,
			al:  zap.NewAtomicLevel(),
		}
		pl.SetLevel(envLevel(pkg))
		pkgLevels[pkg] = pl
	}
	return pl
}

// SetAll assigns the same level to every known package.
// Used by --verbose to surface debug logs.
func SetAll(input string) {
	pkgLevelsLock.Lock()
	defer pkgLevelsLock.Unlock()
	for _, pl := range pkgLevels {
		pl.SetLevel(input)
	}
}

func envLevel(pkg string) string {
	v, ok := os.LookupEnv("STLC_LOG_" + strings.ToUpper(pkg))
	if !ok {
		v = os.Getenv("STLC_LOG")
	}
	return v
}
