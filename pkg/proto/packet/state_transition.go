package packet

import (
	"io"

	"github.com/portalmc/portal/pkg/proto"
)

// StartConfiguration asks the client to re-enter the configuration
// state from play (1.20.2+).
type StartConfiguration struct{}

var _ proto.Packet = (*StartConfiguration)(nil)

func (s *StartConfiguration) Encode(_ *proto.PacketContext, _ io.Writer) error { return nil }
func (s *StartConfiguration) Decode(_ *proto.PacketContext, _ io.Reader) error { return nil }

// AcknowledgeConfiguration is the client's answer to StartConfiguration.
type AcknowledgeConfiguration struct{}

var _ proto.Packet = (*AcknowledgeConfiguration)(nil)

func (a *AcknowledgeConfiguration) Encode(_ *proto.PacketContext, _ io.Writer) error { return nil }
func (a *AcknowledgeConfiguration) Decode(_ *proto.PacketContext, _ io.Reader) error { return nil }

// FinishedUpdate completes the configuration state, moving into play.
type FinishedUpdate struct{}

var _ proto.Packet = (*FinishedUpdate)(nil)

func (f *FinishedUpdate) Encode(_ *proto.PacketContext, _ io.Writer) error { return nil }
func (f *FinishedUpdate) Decode(_ *proto.PacketContext, _ io.Reader) error { return nil }
