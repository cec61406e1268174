package proxy

import (
	"go.minekube.com/brigodier"
	"go.minekube.com/common/minecraft/component"

	"github.com/portalmc/portal/pkg/command"
)

// ReadyEvent is fired once the proxy is ready to accept connections.
type ReadyEvent struct {
	addr string
}

// Addr returns the address the proxy is listening on.
func (r *ReadyEvent) Addr() string { return r.addr }

// ShutdownEvent is fired by the proxy after it stopped accepting
// connections and disconnected all players.
type ShutdownEvent struct {
	Reason component.Component // may be nil
}

// PreLoginEvent is fired when a player has initiated a connection with
// the proxy but before the proxy authenticates the player with Mojang
// or before the player's proxy connection is fully established.
type PreLoginEvent struct {
	connection Inbound
	username   string

	result PreLoginResult
	reason component.Component
}

// PreLoginResult is the result of a PreLoginEvent.
type PreLoginResult uint8

// PreLoginEvent results.
const (
	AllowedPreLogin PreLoginResult = iota
	DeniedPreLogin
	ForceOnlineModePreLogin
	ForceOfflineModePreLogin
)

// Username returns the username the player sent in the login packet.
func (e *PreLoginEvent) Username() string { return e.username }

// Conn returns the inbound connection that is logging in.
func (e *PreLoginEvent) Conn() Inbound { return e.connection }

// Deny denies the login with a reason shown to the player.
func (e *PreLoginEvent) Deny(reason component.Component) {
	e.result = DeniedPreLogin
	e.reason = reason
}

// Allow lets the login proceed with the proxy's configured online mode.
func (e *PreLoginEvent) Allow() {
	e.result = AllowedPreLogin
	e.reason = nil
}

// ForceOnlineMode authenticates the player with Mojang
// even if the proxy runs in offline mode.
func (e *PreLoginEvent) ForceOnlineMode() {
	e.result = ForceOnlineModePreLogin
	e.reason = nil
}

// ForceOfflineMode skips Mojang authentication
// even if the proxy runs in online mode.
func (e *PreLoginEvent) ForceOfflineMode() {
	e.result = ForceOfflineModePreLogin
	e.reason = nil
}

// Result returns the current result of the event.
func (e *PreLoginEvent) Result() PreLoginResult { return e.result }

// Reason returns the deny reason, or nil.
func (e *PreLoginEvent) Reason() component.Component { return e.reason }

// LoginEvent is fired when a player has authenticated but was not yet
// connected to a backend server. The proxy waits for this event to
// finish firing before continuing.
type LoginEvent struct {
	player Player

	denied bool
	reason component.Component
}

// Player returns the logging in player.
func (e *LoginEvent) Player() Player { return e.player }

// Deny denies the login with a reason shown to the player.
func (e *LoginEvent) Deny(reason component.Component) {
	e.denied = true
	e.reason = reason
}

// Allow allows the previously denied login again.
func (e *LoginEvent) Allow() {
	e.denied = false
	e.reason = nil
}

// Allowed returns whether the login is allowed.
func (e *LoginEvent) Allowed() bool { return !e.denied }

// Reason returns the deny reason, or nil.
func (e *LoginEvent) Reason() component.Component { return e.reason }

// PostLoginEvent is fired after the player completed
// the login process with the proxy.
type PostLoginEvent struct {
	player Player
}

// Player returns the logged in player.
func (e *PostLoginEvent) Player() Player { return e.player }

// PlayerChooseInitialServerEvent is fired when a player has finished the
// login process and is deciding the first server to connect to.
// Subscribers may change or unset the initial server.
type PlayerChooseInitialServerEvent struct {
	player        Player
	initialServer RegisteredServer // May be nil if no server is configured.
}

// Player returns the player deciding the initial server.
func (e *PlayerChooseInitialServerEvent) Player() Player { return e.player }

// InitialServer returns the chosen initial server, may be nil.
func (e *PlayerChooseInitialServerEvent) InitialServer() RegisteredServer {
	return e.initialServer
}

// SetInitialServer sets the initial server, nil
// disconnects the player for lack of a server.
func (e *PlayerChooseInitialServerEvent) SetInitialServer(server RegisteredServer) {
	e.initialServer = server
}

// PlayerClientBrandEvent is fired when the client sends its brand
// (e.g. "vanilla" or "fabric") to the proxy.
type PlayerClientBrandEvent struct {
	player Player
	brand  string
}

// Player returns the player that sent the brand.
func (e *PlayerClientBrandEvent) Player() Player { return e.player }

// Brand returns the client brand.
func (e *PlayerClientBrandEvent) Brand() string { return e.brand }

// DisconnectEvent is fired when a player leaves the proxy.
type DisconnectEvent struct {
	player   Player
	loggedIn bool // whether the player completed the login before disconnecting
}

// Player returns the disconnected player.
func (e *DisconnectEvent) Player() Player { return e.player }

// LoggedIn indicates whether the player had completed the login process.
func (e *DisconnectEvent) LoggedIn() bool { return e.loggedIn }

// ServerPreConnectEvent is fired before the player connects to a server.
// Subscribers may deny the connection or redirect it to another server.
type ServerPreConnectEvent struct {
	player   Player
	original RegisteredServer
	server   RegisteredServer
}

// Player returns the player that tries to connect to another server.
func (e *ServerPreConnectEvent) Player() Player { return e.player }

// OriginalServer returns the server that the player originally tried to connect to.
func (e *ServerPreConnectEvent) OriginalServer() RegisteredServer { return e.original }

// Allow the player to connect to the specified server.
func (e *ServerPreConnectEvent) Allow(server RegisteredServer) {
	e.server = server
}

// Deny will cancel the player to connect to another server.
func (e *ServerPreConnectEvent) Deny() {
	e.server = nil
}

// Allowed returns true whether the connection is allowed.
func (e *ServerPreConnectEvent) Allowed() bool { return e.server != nil }

// Server returns the server the player will connect to, or
// nil if Allowed() returns false.
func (e *ServerPreConnectEvent) Server() RegisteredServer { return e.server }

// ConnectionErrorEvent is fired when the player's connection
// to a backend server failed unexpectedly.
type ConnectionErrorEvent struct {
	player Player
	server RegisteredServer
	err    error
	safe   bool
}

// Player returns the player that could not connect.
func (e *ConnectionErrorEvent) Player() Player { return e.player }

// Server returns the server the connection failed for.
func (e *ConnectionErrorEvent) Server() RegisteredServer { return e.server }

// Err returns the connection error.
func (e *ConnectionErrorEvent) Err() error { return e.err }

// Safe indicates whether the player can safely be moved to another server.
func (e *ConnectionErrorEvent) Safe() bool { return e.safe }

// KickedFromServerEvent is fired when a player is kicked from a server.
// The proxy either reconnects the player to another server or disconnects
// them, depending on the event's result.
type KickedFromServerEvent struct {
	player              Player
	server              RegisteredServer
	originalReason      component.Component // nil-able
	duringServerConnect bool
	result              ServerKickResult
}

// Player returns the kicked player.
func (e *KickedFromServerEvent) Player() Player { return e.player }

// Server returns the server the player was kicked from.
func (e *KickedFromServerEvent) Server() RegisteredServer { return e.server }

// OriginalReason returns the kick reason the server sent, may be nil.
func (e *KickedFromServerEvent) OriginalReason() component.Component { return e.originalReason }

// KickedDuringServerConnect returns true if the player was kicked
// while connecting to another server.
func (e *KickedFromServerEvent) KickedDuringServerConnect() bool { return e.duringServerConnect }

// Result returns the result of the kick.
func (e *KickedFromServerEvent) Result() ServerKickResult { return e.result }

// SetResult overrides how the kick is handled.
func (e *KickedFromServerEvent) SetResult(result ServerKickResult) { e.result = result }

// ServerKickResult is the result of a KickedFromServerEvent and is
// implemented by DisconnectPlayerKickResult, RedirectPlayerKickResult
// and NotifyKickResult.
type ServerKickResult interface {
	isServerKickResult() // assert implemented internally
}

var (
	_ ServerKickResult = (*DisconnectPlayerKickResult)(nil)
	_ ServerKickResult = (*RedirectPlayerKickResult)(nil)
	_ ServerKickResult = (*NotifyKickResult)(nil)
)

// DisconnectPlayerKickResult disconnects the player from the proxy.
type DisconnectPlayerKickResult struct {
	Reason component.Component
}

func (*DisconnectPlayerKickResult) isServerKickResult() {}

// RedirectPlayerKickResult redirects the player to another server.
type RedirectPlayerKickResult struct {
	Server  RegisteredServer    // The server to redirect to, must not be nil.
	Message component.Component // The message sent after a successful redirect, nil-able.
}

func (*RedirectPlayerKickResult) isServerKickResult() {}

// NotifyKickResult notifies the player with the message,
// but does not move them to another server.
type NotifyKickResult struct {
	Message component.Component
}

func (*NotifyKickResult) isServerKickResult() {}

// ServerPostConnectEvent is fired after a player completed
// the connection to a backend server.
type ServerPostConnectEvent struct {
	player         Player
	previousServer RegisteredServer // nil-able
}

// Player returns the connected player.
func (e *ServerPostConnectEvent) Player() Player { return e.player }

// PreviousServer returns the server the player was on before, or nil.
func (e *ServerPostConnectEvent) PreviousServer() RegisteredServer { return e.previousServer }

// CommandExecuteEvent is fired when someone wants to execute a command.
type CommandExecuteEvent struct {
	source          command.Source
	commandline     string
	originalCommand string

	forward bool
	denied  bool
}

// Source returns the command invoker.
func (e *CommandExecuteEvent) Source() command.Source { return e.source }

// Command returns the whole commandline without the leading "/".
func (e *CommandExecuteEvent) Command() string { return e.commandline }

// OriginalCommand returns the unmodified commandline the invoker sent.
func (e *CommandExecuteEvent) OriginalCommand() string { return e.originalCommand }

// SetCommand changes the command to execute.
func (e *CommandExecuteEvent) SetCommand(commandline string) { e.commandline = commandline }

// Deny cancels execution of the command.
func (e *CommandExecuteEvent) Deny() { e.denied = true }

// Allowed returns whether the command may be executed.
func (e *CommandExecuteEvent) Allowed() bool { return !e.denied }

// SetForward sets whether the command should always be
// forwarded to the backend server, skipping proxy commands.
func (e *CommandExecuteEvent) SetForward(forward bool) { e.forward = forward }

// Forward returns whether the command is forwarded to the backend server.
func (e *CommandExecuteEvent) Forward() bool { return e.forward }

// TabCompleteEvent is fired after the backend server answered a tab
// completion. Subscribers may modify the suggestions shown to the player.
type TabCompleteEvent struct {
	player         Player
	partialMessage string
	suggestions    []string
}

// Player returns the player requesting the completion.
func (e *TabCompleteEvent) Player() Player { return e.player }

// PartialMessage returns the message the player already typed.
func (e *TabCompleteEvent) PartialMessage() string { return e.partialMessage }

// Suggestions returns the current suggestions.
func (e *TabCompleteEvent) Suggestions() []string { return e.suggestions }

// SetSuggestions replaces the suggestions.
func (e *TabCompleteEvent) SetSuggestions(s []string) { e.suggestions = s }

// PlayerAvailableCommandsEvent allows subscribers to modify the command
// tree the backend server declared before it is sent to the player.
type PlayerAvailableCommandsEvent struct {
	player   Player
	rootNode *brigodier.RootCommandNode
}

// Player returns the player the command tree is sent to.
func (e *PlayerAvailableCommandsEvent) Player() Player { return e.player }

// RootNode returns the mutable root node of the declared command tree.
func (e *PlayerAvailableCommandsEvent) RootNode() *brigodier.RootCommandNode { return e.rootNode }

// ServerConnectedEvent is fired after a player's connection to a
// backend server completed, before play packets flow.
type ServerConnectedEvent struct {
	player         Player
	server         RegisteredServer
	previousServer RegisteredServer // nil-able
}

// Player returns the connected player.
func (e *ServerConnectedEvent) Player() Player { return e.player }

// Server returns the server the player connected to.
func (e *ServerConnectedEvent) Server() RegisteredServer { return e.server }

// PreviousServer returns the server the player was on before, or nil.
func (e *ServerConnectedEvent) PreviousServer() RegisteredServer { return e.previousServer }
