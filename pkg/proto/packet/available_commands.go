package packet

import (
	"errors"
	"fmt"
	"io"

	"github.com/gammazero/deque"
	"go.minekube.com/brigodier"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet/brigadier"
	"github.com/portalmc/portal/pkg/proto/util"
)

const (
	NodeTypeRoot     byte = 0x00
	NodeTypeLiteral  byte = 0x01
	NodeTypeArgument byte = 0x02

	FlagNodeType       byte = 0x03
	FlagExecutable     byte = 0x04
	FlagIsRedirect     byte = 0x08
	FlagHasSuggestions byte = 0x10
)

// AskServerSuggestionProvider is the vanilla suggestion provider that
// asks the server for tab completions.
const AskServerSuggestionProvider = "minecraft:ask_server"

var PlaceholderCommand = brigodier.CommandFunc(func(c *brigodier.CommandContext) error { return nil })

// AvailableCommands declares the command tree the client may use for
// completion and syntax highlighting.
type AvailableCommands struct {
	RootNode *brigodier.RootCommandNode
}

var _ proto.Packet = (*AvailableCommands)(nil)

func (a *AvailableCommands) Encode(c *proto.PacketContext, wr io.Writer) (err error) {
	// Breadth-first walk assigning every node an index.
	var childrenQueue deque.Deque[brigodier.CommandNode]
	childrenQueue.PushFront(a.RootNode)
	idMappings := map[brigodier.CommandNode]int{}
	for childrenQueue.Len() != 0 {
		child := childrenQueue.PopFront()
		if _, ok := idMappings[child]; !ok {
			idMappings[child] = len(idMappings)
			child.ChildrenOrdered().Range(func(_ string, grandChild brigodier.CommandNode) bool {
				childrenQueue.PushBack(grandChild)
				return true
			})
		}
	}

	err = util.WriteVarInt(wr, len(idMappings))
	if err != nil {
		return err
	}
	for child := range idMappings {
		err = encodeNode(wr, child, idMappings, c.Protocol)
		if err != nil {
			return err
		}
	}
	return util.WriteVarInt(wr, idMappings[a.RootNode])
}

func encodeNode(wr io.Writer, node brigodier.CommandNode, idMappings map[brigodier.CommandNode]int, protocol proto.Protocol) error {
	var flags byte
	if node.Redirect() != nil {
		flags |= FlagIsRedirect
	}
	if node.Command() != nil {
		flags |= FlagExecutable
	}

	switch n := node.(type) {
	case *brigodier.LiteralCommandNode:
		flags |= NodeTypeLiteral
	case *brigodier.ArgumentCommandNode:
		flags |= NodeTypeArgument
		if n.CustomSuggestions() != nil {
			flags |= FlagHasSuggestions
		}
	case *brigodier.RootCommandNode:
	default:
		return fmt.Errorf("unknown node type %T", node)
	}

	err := util.WriteByte(wr, flags)
	if err != nil {
		return err
	}
	err = util.WriteVarInt(wr, len(node.Children()))
	if err != nil {
		return err
	}
	node.ChildrenOrdered().Range(func(_ string, child brigodier.CommandNode) bool {
		err = util.WriteVarInt(wr, idMappings[child])
		return err == nil
	})
	if err != nil {
		return err
	}
	if node.Redirect() != nil {
		err = util.WriteVarInt(wr, idMappings[node.Redirect()])
		if err != nil {
			return err
		}
	}

	if flags&FlagNodeType == NodeTypeRoot {
		return nil
	}
	err = util.WriteString(wr, node.Name())
	if err != nil {
		return err
	}
	if n, ok := node.(*brigodier.ArgumentCommandNode); ok {
		err = brigadier.Encode(wr, n.Type(), protocol)
		if err != nil {
			return err
		}

		if provider := n.CustomSuggestions(); provider != nil {
			name := AskServerSuggestionProvider
			if p, ok := provider.(*protocolSuggestionProvider); ok {
				name = p.name
			}
			err = util.WriteString(wr, name)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (a *AvailableCommands) Decode(c *proto.PacketContext, rd io.Reader) error {
	commands, err := util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	wireNodes := make([]*WireNode, commands)
	for i := 0; i < commands; i++ {
		wn := &WireNode{IDx: i}
		if err = wn.decode(rd, c.Protocol); err != nil {
			return err
		}
		wireNodes[i] = wn
	}

	var ok bool
	queue := append([]*WireNode{}, wireNodes...)
	// Iterate over the deserialized nodes and attempt to form a graph,
	// resolving redirect cycles as nodes become buildable.
	for len(queue) != 0 {
		var progressed bool

		for i := 0; i < len(queue); {
			node := queue[i]
			ok, err = node.toNodes(wireNodes)
			if err != nil {
				return err
			}
			if ok {
				progressed = true
				queue = removeWN(queue, i)
				// removing element at i makes i point to the next one
				continue
			}
			i++
		}

		if !progressed {
			return errors.New("command graph contains an unresolvable cycle")
		}
	}

	rootIDx, err := util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	if rootIDx < 0 || rootIDx >= len(wireNodes) {
		return fmt.Errorf("root index %d out of range", rootIDx)
	}
	built := wireNodes[rootIDx].Built
	a.RootNode, ok = built.(*brigodier.RootCommandNode)
	if !ok {
		return fmt.Errorf("built node type is not *RootCommandNode (%T)", built)
	}
	return nil
}

// remove element from slice, order is not important
func removeWN(s []*WireNode, i int) []*WireNode {
	s[len(s)-1], s[i] = s[i], s[len(s)-1]
	return s[:len(s)-1]
}

// WireNode is a partially decoded command node whose children and
// redirect are still index references.
type WireNode struct {
	IDx        int
	Flags      byte
	Children   []int
	RedirectTo int
	Args       brigodier.NodeBuilder // nil-able
	Built      brigodier.CommandNode
	Validated  bool
}

func (w *WireNode) decode(rd io.Reader, protocol proto.Protocol) (err error) {
	w.Flags, err = util.ReadByte(rd)
	if err != nil {
		return err
	}
	w.Children, err = util.ReadIntArray(rd)
	if err != nil {
		return err
	}
	w.RedirectTo = -1
	if w.Flags&FlagIsRedirect > 0 {
		w.RedirectTo, err = util.ReadVarInt(rd)
		if err != nil {
			return err
		}
	}
	switch t := w.Flags & FlagNodeType; t {
	case NodeTypeRoot:
	case NodeTypeLiteral:
		literal, err := util.ReadString(rd)
		if err != nil {
			return err
		}
		w.Args = brigodier.Literal(literal).NodeBuilder()
	case NodeTypeArgument:
		name, err := util.ReadString(rd)
		if err != nil {
			return err
		}
		argType, err := brigadier.Decode(rd, protocol)
		if err != nil {
			return err
		}
		argBuilder := brigodier.Argument(name, argType)
		if w.Flags&FlagHasSuggestions != 0 {
			name, err = util.ReadString(rd)
			if err != nil {
				return err
			}
			argBuilder.Suggests(&protocolSuggestionProvider{name: name})
		}
		w.Args = argBuilder.NodeBuilder()
	default:
		return fmt.Errorf("unknown node type %d", t)
	}
	return nil
}

func (w *WireNode) toNodes(wireNodes []*WireNode) (bool, error) {
	if !w.Validated {
		if err := w.validate(wireNodes); err != nil {
			return false, err
		}
	}

	if w.Built == nil {
		nodeType := w.Flags & FlagNodeType
		if nodeType == NodeTypeRoot {
			w.Built = &brigodier.RootCommandNode{}
		} else {
			if w.Args == nil {
				return false, errors.New("non-root node without args builder")
			}

			if w.RedirectTo != -1 {
				redirect := wireNodes[w.RedirectTo]
				if redirect.Built == nil {
					// Redirect target not built yet.
					return false, nil
				}
				w.Args.Redirect(redirect.Built)
			}

			if w.Flags&FlagExecutable != 0 {
				w.Args.Executes(PlaceholderCommand)
			}

			w.Built = w.Args.Build()
		}
	}

	for _, child := range w.Children {
		if wireNodes[child].Built == nil {
			// A child is not yet built, try again on the next cycle.
			return false, nil
		}
	}

	for _, child := range w.Children {
		childNode := wireNodes[child].Built
		if _, ok := childNode.(*brigodier.RootCommandNode); !ok {
			w.Built.AddChild(childNode)
		}
	}

	return true, nil
}

func (w *WireNode) validate(wireNodes []*WireNode) error {
	// Children are checked for existence here; whether they are built
	// yet is checked after this node is built.
	for _, child := range w.Children {
		if child < 0 || child >= len(wireNodes) {
			return fmt.Errorf("node points to non-existent index %d", child)
		}
	}
	if w.RedirectTo != -1 {
		if w.RedirectTo < 0 || w.RedirectTo >= len(wireNodes) {
			return fmt.Errorf("redirect node points to non-existent index %d", w.RedirectTo)
		}
	}
	w.Validated = true
	return nil
}

// protocolSuggestionProvider preserves the suggestion provider name of
// a decoded argument node across re-encoding.
type protocolSuggestionProvider struct{ name string }

var _ brigodier.SuggestionProvider = (*protocolSuggestionProvider)(nil)

func (p *protocolSuggestionProvider) Suggestions(
	_ *brigodier.CommandContext,
	b *brigodier.SuggestionsBuilder,
) *brigodier.Suggestions {
	return b.Build()
}
