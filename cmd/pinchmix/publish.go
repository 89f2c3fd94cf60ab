package main

import (
	"github.com/ayusman/pinchmix/internal/app"
	"github.com/ayusman/pinchmix/internal/tray"
	"gocv.io/x/gocv"
)

// publishers fans every frame and snapshot out to several sinks.
type publishers []app.Publisher

func (p publishers) PublishFrame(frame *gocv.Mat) {
	for _, pub := range p {
		pub.PublishFrame(frame)
	}
}

func (p publishers) PublishState(state any) {
	for _, pub := range p {
		pub.PublishState(state)
	}
}

// trayStatus mirrors the loop state into the tray's status line.
type trayStatus struct {
	tray *tray.Tray
}

func (t trayStatus) PublishFrame(*gocv.Mat) {}

func (t trayStatus) PublishState(state any) {
	if snap, ok := state.(app.Snapshot); ok {
		t.tray.SetStatus(snap.Summary())
	}
}
