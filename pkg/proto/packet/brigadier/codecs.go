package brigadier

import (
	"fmt"
	"io"

	"go.minekube.com/brigodier"

	"github.com/portalmc/portal/pkg/proto/util"
)

// ArgumentPropertyCodec encodes and decodes the wire properties of an
// argument type.
type ArgumentPropertyCodec interface {
	Encode(wr io.Writer, v any) error
	Decode(rd io.Reader) (any, error)
}

// ArgumentPropertyCodecFuncs implements ArgumentPropertyCodec.
type ArgumentPropertyCodecFuncs struct {
	EncodeFn func(wr io.Writer, v any) error
	DecodeFn func(rd io.Reader) (any, error)
}

func (c *ArgumentPropertyCodecFuncs) Encode(wr io.Writer, v any) error {
	if c.EncodeFn == nil {
		return nil
	}
	return c.EncodeFn(wr, v)
}

func (c *ArgumentPropertyCodecFuncs) Decode(rd io.Reader) (any, error) {
	if c.DecodeFn == nil {
		return nil, nil
	}
	return c.DecodeFn(rd)
}

const (
	HasMinFlag byte = 0x01
	HasMaxFlag byte = 0x02
)

func flags(hasMin, hasMax bool) (f byte) {
	if hasMin {
		f |= HasMinFlag
	}
	if hasMax {
		f |= HasMaxFlag
	}
	return
}

var (
	EmptyArgumentPropertyCodec ArgumentPropertyCodec = &ArgumentPropertyCodecFuncs{}

	BoolArgumentPropertyCodec ArgumentPropertyCodec = &ArgumentPropertyCodecFuncs{
		DecodeFn: func(rd io.Reader) (any, error) {
			return brigodier.Bool, nil
		},
	}

	StringArgumentPropertyCodec ArgumentPropertyCodec = &ArgumentPropertyCodecFuncs{
		EncodeFn: func(wr io.Writer, v any) error {
			t, ok := v.(brigodier.StringType)
			if !ok {
				return fmt.Errorf("expected brigodier.StringType but got %T", v)
			}
			switch t {
			case brigodier.SingleWord, brigodier.QuotablePhase, brigodier.GreedyPhrase:
				return util.WriteVarInt(wr, int(t))
			default:
				return fmt.Errorf("invalid string argument type %d", t)
			}
		},
		DecodeFn: func(rd io.Reader) (any, error) {
			t, err := util.ReadVarInt(rd)
			if err != nil {
				return nil, err
			}
			switch t {
			case 0, 1, 2:
				return brigodier.StringType(t), nil
			default:
				return nil, fmt.Errorf("invalid string argument type %d", t)
			}
		},
	}

	EntityArgumentPropertyCodec ArgumentPropertyCodec = &ArgumentPropertyCodecFuncs{
		EncodeFn: func(wr io.Writer, v any) error {
			i, ok := v.(*EntityArgumentType)
			if !ok {
				return fmt.Errorf("expected *EntityArgumentType but got %T", v)
			}
			var b byte
			if i.SingleEntity {
				b |= 0x1
			}
			if i.OnlyPlayers {
				b |= 0x2
			}
			return util.WriteByte(wr, b)
		},
		DecodeFn: func(rd io.Reader) (any, error) {
			b, err := util.ReadByte(rd)
			if err != nil {
				return nil, err
			}
			return &EntityArgumentType{SingleEntity: b&0x1 != 0, OnlyPlayers: b&0x2 != 0}, nil
		},
	}

	ScoreHolderArgumentPropertyCodec ArgumentPropertyCodec = &ArgumentPropertyCodecFuncs{
		EncodeFn: func(wr io.Writer, v any) error {
			i, ok := v.(*ScoreHolderArgumentType)
			if !ok {
				return fmt.Errorf("expected *ScoreHolderArgumentType but got %T", v)
			}
			var b byte
			if i.AllowMultiple {
				b |= 0x1
			}
			return util.WriteByte(wr, b)
		},
		DecodeFn: func(rd io.Reader) (any, error) {
			b, err := util.ReadByte(rd)
			if err != nil {
				return nil, err
			}
			return &ScoreHolderArgumentType{AllowMultiple: b&0x1 != 0}, nil
		},
	}

	TimeArgumentPropertyCodec ArgumentPropertyCodec = &ArgumentPropertyCodecFuncs{
		EncodeFn: func(wr io.Writer, v any) error {
			i, ok := v.(*TimeArgumentType)
			if !ok {
				return fmt.Errorf("expected *TimeArgumentType but got %T", v)
			}
			return util.WriteInt32(wr, i.Min)
		},
		DecodeFn: func(rd io.Reader) (any, error) {
			min, err := util.ReadInt32(rd)
			if err != nil {
				return nil, err
			}
			return &TimeArgumentType{Min: min}, nil
		},
	}

	Float64ArgumentPropertyCodec ArgumentPropertyCodec = &ArgumentPropertyCodecFuncs{
		EncodeFn: func(wr io.Writer, v any) error {
			i, ok := v.(*brigodier.Float64ArgumentType)
			if !ok {
				return fmt.Errorf("expected *brigodier.Float64ArgumentType but got %T", v)
			}
			hasMin := i.Min != brigodier.MinFloat64
			hasMax := i.Max != brigodier.MaxFloat64
			if err := util.WriteByte(wr, flags(hasMin, hasMax)); err != nil {
				return err
			}
			if hasMin {
				if err := util.WriteFloat64(wr, i.Min); err != nil {
					return err
				}
			}
			if hasMax {
				return util.WriteFloat64(wr, i.Max)
			}
			return nil
		},
		DecodeFn: func(rd io.Reader) (any, error) {
			fl, err := util.ReadByte(rd)
			if err != nil {
				return nil, err
			}
			min := brigodier.MinFloat64
			max := brigodier.MaxFloat64
			if fl&HasMinFlag != 0 {
				if min, err = util.ReadFloat64(rd); err != nil {
					return nil, err
				}
			}
			if fl&HasMaxFlag != 0 {
				if max, err = util.ReadFloat64(rd); err != nil {
					return nil, err
				}
			}
			return &brigodier.Float64ArgumentType{Min: min, Max: max}, nil
		},
	}

	Float32ArgumentPropertyCodec ArgumentPropertyCodec = &ArgumentPropertyCodecFuncs{
		EncodeFn: func(wr io.Writer, v any) error {
			i, ok := v.(*brigodier.Float32ArgumentType)
			if !ok {
				return fmt.Errorf("expected *brigodier.Float32ArgumentType but got %T", v)
			}
			hasMin := i.Min != brigodier.MinFloat32
			hasMax := i.Max != brigodier.MaxFloat32
			if err := util.WriteByte(wr, flags(hasMin, hasMax)); err != nil {
				return err
			}
			if hasMin {
				if err := util.WriteFloat32(wr, i.Min); err != nil {
					return err
				}
			}
			if hasMax {
				return util.WriteFloat32(wr, i.Max)
			}
			return nil
		},
		DecodeFn: func(rd io.Reader) (any, error) {
			fl, err := util.ReadByte(rd)
			if err != nil {
				return nil, err
			}
			min := float32(brigodier.MinFloat32)
			max := float32(brigodier.MaxFloat32)
			if fl&HasMinFlag != 0 {
				if min, err = util.ReadFloat32(rd); err != nil {
					return nil, err
				}
			}
			if fl&HasMaxFlag != 0 {
				if max, err = util.ReadFloat32(rd); err != nil {
					return nil, err
				}
			}
			return &brigodier.Float32ArgumentType{Min: min, Max: max}, nil
		},
	}

	Int32ArgumentPropertyCodec ArgumentPropertyCodec = &ArgumentPropertyCodecFuncs{
		EncodeFn: func(wr io.Writer, v any) error {
			i, ok := v.(*brigodier.Int32ArgumentType)
			if !ok {
				return fmt.Errorf("expected *brigodier.Int32ArgumentType but got %T", v)
			}
			hasMin := i.Min != brigodier.MinInt32
			hasMax := i.Max != brigodier.MaxInt32
			if err := util.WriteByte(wr, flags(hasMin, hasMax)); err != nil {
				return err
			}
			if hasMin {
				if err := util.WriteInt32(wr, i.Min); err != nil {
					return err
				}
			}
			if hasMax {
				return util.WriteInt32(wr, i.Max)
			}
			return nil
		},
		DecodeFn: func(rd io.Reader) (any, error) {
			fl, err := util.ReadByte(rd)
			if err != nil {
				return nil, err
			}
			min := int32(brigodier.MinInt32)
			max := int32(brigodier.MaxInt32)
			if fl&HasMinFlag != 0 {
				if min, err = util.ReadInt32(rd); err != nil {
					return nil, err
				}
			}
			if fl&HasMaxFlag != 0 {
				if max, err = util.ReadInt32(rd); err != nil {
					return nil, err
				}
			}
			return &brigodier.Int32ArgumentType{Min: min, Max: max}, nil
		},
	}

	Int64ArgumentPropertyCodec ArgumentPropertyCodec = &ArgumentPropertyCodecFuncs{
		EncodeFn: func(wr io.Writer, v any) error {
			i, ok := v.(*brigodier.Int64ArgumentType)
			if !ok {
				return fmt.Errorf("expected *brigodier.Int64ArgumentType but got %T", v)
			}
			hasMin := i.Min != brigodier.MinInt64
			hasMax := i.Max != brigodier.MaxInt64
			if err := util.WriteByte(wr, flags(hasMin, hasMax)); err != nil {
				return err
			}
			if hasMin {
				if err := util.WriteInt64(wr, i.Min); err != nil {
					return err
				}
			}
			if hasMax {
				return util.WriteInt64(wr, i.Max)
			}
			return nil
		},
		DecodeFn: func(rd io.Reader) (any, error) {
			fl, err := util.ReadByte(rd)
			if err != nil {
				return nil, err
			}
			min := int64(brigodier.MinInt64)
			max := int64(brigodier.MaxInt64)
			if fl&HasMinFlag != 0 {
				if min, err = util.ReadInt64(rd); err != nil {
					return nil, err
				}
			}
			if fl&HasMaxFlag != 0 {
				if max, err = util.ReadInt64(rd); err != nil {
					return nil, err
				}
			}
			return &brigodier.Int64ArgumentType{Min: min, Max: max}, nil
		},
	}
)
