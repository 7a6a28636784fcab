package main

import (
	"fmt"
	"sort"

	"github.com/harelcraft/statecraft"
)

// sample builds a ready-to-run Statechart. Parsing a textual statechart
// format is out of scope for the core, so the CLI ships a small fixed
// registry of in-memory samples instead of a file loader.
type sample func() (*statecraft.Statechart, error)

var samples = map[string]sample{
	"light":    buildLight,
	"elevator": buildElevator,
}

// sampleNames returns the registry keys, sorted, for usage text.
func sampleNames() []string {
	out := make([]string, 0, len(samples))
	for name := range samples {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func lookupSample(name string) (*statecraft.Statechart, error) {
	build, ok := samples[name]
	if !ok {
		return nil, fmt.Errorf("unknown sample %q (available: %v)", name, sampleNames())
	}
	return build()
}

// buildLight is a two-state toggle: off <-> on, counting how many times it
// has turned on via the preamble-declared "count" variable.
func buildLight() (*statecraft.Statechart, error) {
	b := statecraft.NewBuilder("light").
		WithPreamble("count = 0").
		WithInitial("off")

	b.AddState(statecraft.NewState("off", statecraft.Atomic))
	b.AddState(statecraft.NewState("on", statecraft.Atomic).
		WithOnEntry("count = count + 1"))

	b.AddTransition(statecraft.NewTransition("off", "on").WithEvent("switch"))
	b.AddTransition(statecraft.NewTransition("on", "off").WithEvent("switch"))

	return b.Build()
}

// buildElevator models a compound "doors" region nested under a moving/idle
// split, exercising compound children, an internal transition, a guard and
// a shallow history so the sample can stand in for the S1-S4 scenarios in
// manual testing.
func buildElevator() (*statecraft.Statechart, error) {
	b := statecraft.NewBuilder("elevator").
		WithPreamble("floor = 0; requests = 0").
		WithInitial("idle")

	b.AddState(statecraft.NewState("idle", statecraft.Compound).WithInitial("doorsOpen"))
	b.AddChildState("idle", statecraft.NewState("doorsOpen", statecraft.Atomic))
	b.AddChildState("idle", statecraft.NewState("doorsClosed", statecraft.Atomic))
	b.AddChildState("idle", statecraft.NewState("idleHistory", statecraft.History).WithInitial("doorsOpen"))

	b.AddState(statecraft.NewState("moving", statecraft.Atomic).
		WithOnEntry("floor = floor + 1"))

	b.AddState(statecraft.NewState("done", statecraft.Final))

	b.AddTransition(statecraft.NewTransition("doorsOpen", "doorsClosed").WithEvent("close"))
	b.AddTransition(statecraft.NewTransition("doorsClosed", "doorsOpen").WithEvent("open"))
	b.AddTransition(statecraft.NewTransition("idle", "moving").
		WithEvent("call").
		WithGuard("requests < 3").
		WithAction("requests = requests + 1"))
	b.AddTransition(statecraft.NewTransition("moving", "idleHistory").WithEvent("arrive"))
	b.AddTransition(statecraft.NewTransition("idle", "done").WithEvent("shutdown"))
	b.AddTransition(statecraft.NewTransition("doorsOpen", "").AsInternal().
		WithEvent("chime").
		WithAction("requests = requests"))

	return b.Build()
}
