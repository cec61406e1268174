// Package componentutil provides chat component helpers.
package componentutil

import (
	"errors"
	"strings"

	"go.minekube.com/common/minecraft/component"
	"go.minekube.com/common/minecraft/component/codec/legacy"

	"github.com/portalmc/portal/pkg/proto"
	protoutil "github.com/portalmc/portal/pkg/proto/util"
)

// ParseTextComponent parses a JSON or legacy formatted string into a text component.
func ParseTextComponent(protocol proto.Protocol, s string) (t *component.Text, err error) {
	var c component.Component
	if strings.HasPrefix(s, "{") {
		c, err = protoutil.JsonCodec(protocol).Unmarshal([]byte(s))
	} else {
		c, err = (&legacy.Legacy{}).Unmarshal([]byte(s))
	}
	if err != nil {
		return nil, err
	}
	t, ok := c.(*component.Text)
	if !ok {
		return nil, errors.New("invalid text component")
	}
	return t, nil
}
