// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package log

import (
	"fmt"
	"os"
)

// None is a logger that doesn't do anything. Fatal and Panic still terminate
// the program and panic, respectively.
var None Logger = &none{}

type none struct{}

func (none) Printf(string, ...interface{}) {}
func (none) Print(...interface{})          {}
func (none) Println(...interface{})        {}
func (none) Tracef(string, ...interface{}) {}
func (none) Debugf(string, ...interface{}) {}
func (none) Infof(string, ...interface{})  {}
func (none) Warnf(string, ...interface{})  {}
func (none) Errorf(string, ...interface{}) {}
func (none) Trace(...interface{})          {}
func (none) Debug(...interface{})          {}
func (none) Info(...interface{})           {}
func (none) Warn(...interface{})           {}
func (none) Error(...interface{})          {}
func (none) Traceln(...interface{})        {}
func (none) Debugln(...interface{})        {}
func (none) Infoln(...interface{})         {}
func (none) Warnln(...interface{})         {}
func (none) Errorln(...interface{})        {}

func (none) Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func (none) Fatal(args ...interface{}) {
	fmt.Fprint(os.Stderr, args...)
	os.Exit(1)
}

func (none) Fatalln(args ...interface{}) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}

func (none) Panicf(format string, args ...interface{}) { panic(fmt.Sprintf(format, args...)) }
func (none) Panic(args ...interface{})                 { panic(fmt.Sprint(args...)) }
func (none) Panicln(args ...interface{})               { panic(fmt.Sprintln(args...)) }

func (n *none) WithField(string, interface{}) Logger { return n }
func (n *none) WithFields(Fields) Logger             { return n }
func (n *none) WithError(error) Logger               { return n }
