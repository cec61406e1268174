package proxy

import (
	"context"
	"crypto/rand"
	"errors"
	"regexp"
	"time"

	"github.com/go-logr/logr"
	"github.com/robinbraemer/event"
	"go.minekube.com/common/minecraft/color"
	"go.minekube.com/common/minecraft/component"

	"github.com/portalmc/portal/pkg/auth"
	"github.com/portalmc/portal/pkg/config"
	"github.com/portalmc/portal/pkg/netmc"
	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet"
	"github.com/portalmc/portal/pkg/proto/state"
	"github.com/portalmc/portal/pkg/util/netutil"
	"github.com/portalmc/portal/pkg/util/profile"
	"github.com/portalmc/portal/pkg/util/uuid"
)

type loginState uint8

const (
	loginPacketExpectedLoginState loginState = iota
	loginPacketReceivedLoginState
	encryptionRequestSentLoginState
	encryptionResponseReceivedLoginState
)

type initialLoginSessionHandler struct {
	conn    netmc.MinecraftConn
	proxy   *Proxy
	inbound Inbound
	log     logr.Logger

	nopSessionHandler

	currentState loginState
	login        *packet.ServerLogin
	verify       []byte
}

func newInitialLoginSessionHandler(conn netmc.MinecraftConn, proxy *Proxy, inbound Inbound) netmc.SessionHandler {
	return &initialLoginSessionHandler{
		conn:         conn,
		proxy:        proxy,
		inbound:      inbound,
		log:          logr.FromContextOrDiscard(conn.Context()).WithName("loginSession"),
		currentState: loginPacketExpectedLoginState,
	}
}

func (l *initialLoginSessionHandler) HandlePacket(pc *proto.PacketContext) {
	if !pc.KnownPacket() {
		// Unknown packet received, close the connection.
		_ = l.conn.Close()
		return
	}
	switch t := pc.Packet.(type) {
	case *packet.ServerLogin:
		l.handleServerLogin(t)
	case *packet.EncryptionResponse:
		l.handleEncryptionResponse(t)
	default:
		// Unexpected packet, simply close the connection.
		_ = l.conn.Close()
	}
}

var playerNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{2,16}$`)

var invalidPlayerName = &component.Text{
	Content: "Your username has an invalid format.",
	S:       component.Style{Color: color.Red},
}

func (l *initialLoginSessionHandler) handleServerLogin(login *packet.ServerLogin) {
	if !l.assertState(loginPacketExpectedLoginState) {
		return
	}
	l.currentState = loginPacketReceivedLoginState

	// Validate the username format early to not punch
	// invalid names through to the Mojang API.
	if !playerNameRegex.MatchString(login.Username) {
		l.disconnect(invalidPlayerName)
		return
	}
	l.login = login

	e := &PreLoginEvent{
		connection: l.inbound,
		username:   login.Username,
	}
	l.proxy.event.Fire(e)
	if netmc.Closed(l.conn) {
		return // Player was disconnected
	}

	if e.Result() == DeniedPreLogin {
		reason := e.Reason()
		if reason == nil {
			reason = &component.Text{Content: "Login denied"}
		}
		l.disconnect(reason)
		return
	}

	onlineMode := e.Result() == ForceOnlineModePreLogin ||
		(l.config().OnlineMode && e.Result() != ForceOfflineModePreLogin)
	if !onlineMode {
		// Offline mode login, derive a stable id from the username.
		sh := newAuthSessionHandler(
			l.conn, l.proxy, l.inbound,
			profile.NewOffline(login.Username),
			false,
		)
		l.conn.SetSessionHandler(sh)
		return
	}

	// Online mode login, send encryption request to begin authentication.
	request := l.generateEncryptionRequest()
	l.verify = make([]byte, len(request.VerifyToken))
	copy(l.verify, request.VerifyToken)
	err := l.conn.WritePacket(request)
	if err != nil {
		return
	}
	l.currentState = encryptionRequestSentLoginState
}

func (l *initialLoginSessionHandler) generateEncryptionRequest() *packet.EncryptionRequest {
	verify := make([]byte, 4)
	_, _ = rand.Read(verify)
	return &packet.EncryptionRequest{
		PublicKey:          l.auth().PublicKey(),
		VerifyToken:        verify,
		ShouldAuthenticate: true,
	}
}

var unableAuthWithMojang = &component.Text{
	Content: "Unable to authenticate you with Mojang.\nPlease try again!",
	S:       component.Style{Color: color.Red},
}

// unverifiedUsername turns away users the session server does not
// know (hasJoined answered 204), using the vanilla translation key so
// clients render their localized message.
var unverifiedUsername = &component.Translation{
	Key: "multiplayer.disconnect.unverified_username",
}

func (l *initialLoginSessionHandler) handleEncryptionResponse(resp *packet.EncryptionResponse) {
	if !l.assertState(encryptionRequestSentLoginState) {
		return
	}
	l.currentState = encryptionResponseReceivedLoginState

	if l.login == nil {
		l.log.V(1).Info("no ServerLogin packet received yet, disconnecting")
		_ = l.conn.Close()
		return
	}
	if len(l.verify) == 0 {
		l.log.V(1).Info("no EncryptionRequest packet sent yet, disconnecting")
		_ = l.conn.Close()
		return
	}

	authn := l.auth()
	valid, err := authn.Verify(resp.VerifyToken, l.verify)
	if err != nil || !valid {
		// Simply close the connection without much overhead.
		l.log.V(1).Info("invalid verification token, disconnecting")
		_ = l.conn.Close()
		return
	}

	decryptedSharedSecret, err := authn.DecryptSharedSecret(resp.SharedSecret)
	if err != nil {
		_ = l.conn.Close()
		return
	}

	// Once the client sent EncryptionResponse, encryption is enabled.
	if err = l.conn.EnableEncryption(decryptedSharedSecret); err != nil {
		l.log.Error(err, "error enabling encryption for connecting player")
		l.disconnect(internalServerConnectionError)
		return
	}

	var optionalUserIP string
	if l.config().ShouldPreventClientProxyConnections {
		optionalUserIP = netutil.Host(l.conn.RemoteAddr())
	}

	serverID, err := authn.GenerateServerID(decryptedSharedSecret)
	if err != nil {
		l.disconnect(unableAuthWithMojang)
		return
	}

	log := l.log.WithName("authn")
	ctx, cancel := context.WithTimeout(
		logr.NewContext(l.conn.Context(), log),
		time.Duration(l.config().LoginTimeout)*time.Millisecond,
	)
	defer cancel()

	authResp, err := authn.AuthenticateJoin(ctx, serverID, l.login.Username, optionalUserIP)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// The player disconnected before we could authenticate.
			return
		}
		l.disconnect(unableAuthWithMojang)
		return
	}

	if !authResp.OnlineMode() {
		// Apparently an offline-mode user logged onto this online-mode proxy.
		log.Info("disconnect offline mode player")
		l.disconnect(unverifiedUsername)
		return
	}

	// Extract game profile from response.
	gameProfile, err := authResp.GameProfile()
	if err != nil {
		l.disconnect(unableAuthWithMojang)
		log.Error(err, "unable to extract game profile from Mojang authentication response")
		return
	}

	// All went well, initialize the session.
	l.conn.SetSessionHandler(newAuthSessionHandler(
		l.conn, l.proxy, l.inbound, gameProfile, true))
}

func (l *initialLoginSessionHandler) disconnect(reason component.Component) {
	_ = netmc.CloseWith(l.conn, packet.NewLoginDisconnectUnchecked(reason))
}

func (l *initialLoginSessionHandler) auth() auth.Authenticator {
	return l.proxy.authenticator
}

func (l *initialLoginSessionHandler) config() *config.Config {
	return l.proxy.cfg
}

func (l *initialLoginSessionHandler) assertState(expectedState loginState) bool {
	if l.currentState == expectedState {
		return true
	}
	l.log.V(1).Info("received an unexpected packet during initial login session",
		"currentState", l.currentState,
		"expectedState", expectedState)
	_ = l.conn.Close()
	return false
}

type authLoginState uint8

const (
	startAuthLoginState authLoginState = iota
	successSentAuthLoginState
	acknowledgedAuthLoginState
)

// authSessionHandler completes the login phase after the
// player's game profile was determined.
type authSessionHandler struct {
	conn       netmc.MinecraftConn
	proxy      *Proxy
	inbound    Inbound
	log        logr.Logger
	profile    *profile.GameProfile
	onlineMode bool

	nopSessionHandler

	// Only touched by the client's read loop.
	loginState authLoginState

	connectedPlayer *connectedPlayer
}

func newAuthSessionHandler(
	conn netmc.MinecraftConn,
	proxy *Proxy,
	inbound Inbound,
	profile *profile.GameProfile,
	onlineMode bool,
) netmc.SessionHandler {
	return &authSessionHandler{
		conn:       conn,
		proxy:      proxy,
		inbound:    inbound,
		log:        logr.FromContextOrDiscard(conn.Context()).WithName("authSession"),
		profile:    profile,
		onlineMode: onlineMode,
		loginState: startAuthLoginState,
	}
}

func (a *authSessionHandler) Disconnected() {
	if a.connectedPlayer != nil {
		a.connectedPlayer.teardown()
	}
}

func (a *authSessionHandler) Activated() {
	if netmc.Closed(a.conn) {
		return // Player disconnected after authentication
	}

	// Initiate a regular connection and move over to it.
	player := newConnectedPlayer(
		a.conn,
		a.profile,
		a.inbound.VirtualHost(),
		a.inbound.HandshakeIntent(),
		a.onlineMode,
		a.proxy,
	)
	a.connectedPlayer = player

	a.log.Info("player has connected, completing login", "player", player, "id", player.ID())

	a.completeLoginProtocolPhase(player)
}

func (a *authSessionHandler) completeLoginProtocolPhase(player *connectedPlayer) {
	cfg := a.proxy.cfg

	// Send compression threshold
	threshold := cfg.Compression.Threshold
	if threshold >= 0 {
		err := player.WritePacket(&packet.SetCompression{Threshold: threshold})
		if err != nil {
			_ = player.Close()
			return
		}
		if err = player.SetCompressionThreshold(threshold); err != nil {
			a.log.Error(err, "error setting compression threshold")
			player.Disconnect(internalServerConnectionError)
			return
		}
	}

	loginEvent := &LoginEvent{player: player}
	a.proxy.event.Fire(loginEvent)
	if !player.Active() {
		return
	}
	if !loginEvent.Allowed() {
		player.Disconnect(loginEvent.Reason())
		return
	}

	if !a.proxy.registerConnection(player) {
		player.Disconnect(alreadyConnectedToProxy)
		return
	}

	playerID := player.ID()
	if cfg.Forwarding.Mode == config.NoneForwardingMode {
		// The backend server generates its own offline uuid for the player,
		// tell the client the same id to keep them consistent.
		playerID = uuid.OfflinePlayerUUID(player.Username())
	}

	if player.WritePacket(&packet.ServerLoginSuccess{
		UUID:       playerID,
		Username:   player.Username(),
		Properties: player.GameProfile().Properties,
	}) != nil {
		return
	}

	a.loginState = successSentAuthLoginState
}

var alreadyConnectedToProxy = &component.Text{
	Content: "You are already connected to this proxy!",
}

var noAvailableServers = &component.Text{
	Content: "No available server to connect you to.",
	S:       component.Style{Color: color.Red},
}

func (a *authSessionHandler) HandlePacket(pc *proto.PacketContext) {
	switch pc.Packet.(type) {
	case *packet.LoginAcknowledged:
		a.handleLoginAcknowledged()
	default:
		a.log.V(1).Info("unexpected packet during auth session",
			"packetID", pc.PacketID)
		_ = a.conn.Close()
	}
}

func (a *authSessionHandler) handleLoginAcknowledged() {
	if a.loginState != successSentAuthLoginState {
		_ = netmc.CloseWith(a.conn, packet.NewLoginDisconnectUnchecked(&component.Translation{
			Key: "multiplayer.disconnect.invalid_player_data",
		}))
		return
	}
	a.loginState = acknowledgedAuthLoginState

	a.conn.SetState(state.Config)
	a.conn.SetSessionHandler(newClientConfigSessionHandler(a.connectedPlayer))

	event.FireParallel(a.proxy.event, &PostLoginEvent{player: a.connectedPlayer},
		func(*PostLoginEvent) {
			if !a.connectedPlayer.Active() {
				return
			}
			a.connectToInitialServer(a.connectedPlayer)
		})
}

// connectToInitialServer chooses the player's initial server and
// initiates the backend connection. The player is disconnected
// when no initial server could be found.
func (a *authSessionHandler) connectToInitialServer(player *connectedPlayer) {
	initialFromConfig := player.nextServerToTry(nil)
	chooseServer := &PlayerChooseInitialServerEvent{
		player:        player,
		initialServer: initialFromConfig,
	}
	a.proxy.event.Fire(chooseServer)
	if !player.Active() || // player was disconnected
		player.CurrentServer() != nil { // player was already connected to a server
		return
	}
	if chooseServer.InitialServer() == nil {
		player.Disconnect(noAvailableServers)
		return
	}
	ctx, cancel := withConnectionTimeout(player.Context(), a.proxy.cfg)
	defer cancel()
	player.CreateConnectionRequest(chooseServer.InitialServer()).ConnectWithIndication(ctx)
}
