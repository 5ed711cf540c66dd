// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// NSRP is a tool for stochastic rainfall simulation
// using the Neyman-Scott rectangular pulse process.
package main

import (
	"github.com/js-arias/command"
	"github.com/js-arias/nsrp/cmd/nsrp/add"
	"github.com/js-arias/nsrp/cmd/nsrp/sim"
)

var app = &command.Command{
	Usage: "nsrp <command> [<argument>...]",
	Short: "a tool for stochastic rainfall simulation",
}

func init() {
	app.Add(add.Command)
	app.Add(sim.Command)
}

func main() {
	app.Main()
}
