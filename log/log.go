// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package log implements the logger interface of go-metawallet. Users are
// expected to pass an implementation of this interface to harmonize the
// session's logging with their application logging.
//
// It mimics the interface of logrus, which is go-metawallet's logger of choice.
// An adapter for logrus lives in the log/logrus subpackage.
package log // import "genesis.network/go-metawallet/log"

import (
	"log"
	"sync"
)

var (
	// compile-time check that log.Logger implements a StdLogger
	_ StdLogger = &log.Logger{}

	mu sync.RWMutex
	// logger is the framework logger. It is set to the None non-logging logger
	// by default.
	logger Logger = None
)

// StdLogger describes the interface of the standard library log package logger.
type StdLogger interface {
	Printf(format string, args ...interface{})
	Print(...interface{})
	Println(...interface{})

	Fatalf(format string, args ...interface{})
	Fatal(...interface{})
	Fatalln(...interface{})

	Panicf(format string, args ...interface{})
	Panic(...interface{})
	Panicln(...interface{})
}

// LevelLogger is an extension to the StdLogger with different verbosity levels.
type LevelLogger interface {
	StdLogger

	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	Trace(...interface{})
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Error(...interface{})

	Traceln(...interface{})
	Debugln(...interface{})
	Infoln(...interface{})
	Warnln(...interface{})
	Errorln(...interface{})
}

// Fields is a collection of fields that can be passed to Logger.WithFields.
type Fields map[string]interface{}

// Logger is a LevelLogger with structured field logging capabilities.
// This is the interface that needs to be passed to Set.
type Logger interface {
	LevelLogger

	WithField(key string, value interface{}) Logger
	WithFields(Fields) Logger
	WithError(error) Logger
}

// Set sets the framework logger. A nil logger resets it to None.
func Set(l Logger) {
	if l == nil {
		l = None
	}
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// Get returns the current framework logger.
func Get() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// WithField returns the framework logger with the given field attached.
func WithField(key string, value interface{}) Logger { return Get().WithField(key, value) }

// WithFields returns the framework logger with the given fields attached.
func WithFields(fs Fields) Logger { return Get().WithFields(fs) }

// WithError returns the framework logger with the given error attached.
func WithError(err error) Logger { return Get().WithError(err) }

func Printf(format string, args ...interface{}) { Get().Printf(format, args...) }
func Print(args ...interface{})                 { Get().Print(args...) }
func Println(args ...interface{})               { Get().Println(args...) }

func Fatalf(format string, args ...interface{}) { Get().Fatalf(format, args...) }
func Fatal(args ...interface{})                 { Get().Fatal(args...) }
func Fatalln(args ...interface{})               { Get().Fatalln(args...) }

func Panicf(format string, args ...interface{}) { Get().Panicf(format, args...) }
func Panic(args ...interface{})                 { Get().Panic(args...) }
func Panicln(args ...interface{})               { Get().Panicln(args...) }

func Tracef(format string, args ...interface{}) { Get().Tracef(format, args...) }
func Trace(args ...interface{})                 { Get().Trace(args...) }
func Traceln(args ...interface{})               { Get().Traceln(args...) }

func Debugf(format string, args ...interface{}) { Get().Debugf(format, args...) }
func Debug(args ...interface{})                 { Get().Debug(args...) }
func Debugln(args ...interface{})               { Get().Debugln(args...) }

func Infof(format string, args ...interface{}) { Get().Infof(format, args...) }
func Info(args ...interface{})                 { Get().Info(args...) }
func Infoln(args ...interface{})               { Get().Infoln(args...) }

func Warnf(format string, args ...interface{}) { Get().Warnf(format, args...) }
func Warn(args ...interface{})                 { Get().Warn(args...) }
func Warnln(args ...interface{})               { Get().Warnln(args...) }

func Errorf(format string, args ...interface{}) { Get().Errorf(format, args...) }
func Error(args ...interface{})                 { Get().Error(args...) }
func Errorln(args ...interface{})               { Get().Errorln(args...) }
