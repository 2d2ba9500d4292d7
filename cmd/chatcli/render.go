package main

import (
	"collab-chat/domain"
	gateway "collab-chat/infrastructure/websocket"
	"fmt"

	"github.com/gookit/color"
)

type Renderer struct {
	Colours bool
}

// Render prints "[15:04:05] sender: message", the sender colored by variant.
func (r Renderer) Render(msg gateway.OutboundMessage) string {
	sender := msg.Sender
	if r.Colours {
		sender = senderStyle(msg.Sender).Render(sender)
	}
	return fmt.Sprintf("[%s] %s: %s", msg.Timestamp.Local().Format("15:04:05"), sender, msg.Message)
}

func senderStyle(sender string) color.Style {
	switch sender {
	case domain.AssistantTag:
		return color.New(color.BgBlack, color.FgCyan, color.OpBold)
	case domain.SystemTag:
		return color.New(color.BgBlack, color.FgRed)
	default:
		return color.New(color.BgBlack, color.FgGreen)
	}
}
