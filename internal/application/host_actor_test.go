package application

import (
	"context"
	"testing"
	"time"

	"github.com/bnema/tonebridge/internal/adapters/host/sim"
	"github.com/bnema/tonebridge/internal/domain"
	"github.com/bnema/tonebridge/internal/protocol"
	"github.com/bnema/tonebridge/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type actorFixture struct {
	actor    *HostActor
	inbound  *queue.Inbound
	outbound *queue.Outbound
	clock    *fakeClock
	session  *sim.Session
}

func newActorFixture(t *testing.T) actorFixture {
	t.Helper()

	inbound := queue.NewInbound(16)
	outbound := queue.NewOutbound(16)
	clock := newFakeClock()
	actor := NewHostActor(inbound, outbound, HostActorConfig{
		Profile: domain.DefaultProfile(),
		Clock:   clock,
		Logger:  zaptest.NewLogger(t),
	})

	return actorFixture{actor: actor, inbound: inbound, outbound: outbound, clock: clock, session: sim.DefaultSession()}
}

func (f actorFixture) tick() []queue.Envelope {
	f.actor.Tick(f.session)
	return f.outbound.Drain()
}

func (f actorFixture) connect(t *testing.T, token string) protocol.Handshake {
	t.Helper()

	f.inbound.PushLifecycle(queue.EventConnected, token)
	out := f.tick()
	require.Len(t, out, 1)
	hs, ok := out[0].Message.(protocol.Handshake)
	require.True(t, ok)
	assert.Equal(t, token, out[0].Token)

	return hs
}

func setToneCmd(token, id string, target domain.InstanceID, params ...protocol.Param) protocol.SetTone {
	return protocol.SetTone{
		SessionToken: token,
		CommandID:    id,
		TargetFXGUID: string(target),
		Mode:         domain.MergeModeMerge,
		Params:       params,
	}
}

func TestHostActorHandshakeOnConnect(t *testing.T) {
	t.Parallel()

	f := newActorFixture(t)
	hs := f.connect(t, "tok")

	assert.Equal(t, "tok", hs.SessionToken)
	require.Len(t, hs.Instances, 2)
	assert.Equal(t, string(gojiraFX), hs.Instances[0].FXGUID)
	assert.Equal(t, "Guitar DI", hs.Instances[0].TrackName)
	assert.Equal(t, 1, hs.Instances[0].LastKnownFXIndex)
	assert.Equal(t, domain.ConfidenceHigh, hs.Instances[0].Confidence)
	assert.Equal(t, "confirmed at 105 (neighbor of 101): Delay Mix", hs.ValidationReport["delay_mix"])
	assert.NotEmpty(t, hs.ParamFormats)
	assert.NotEmpty(t, hs.ParamEnums)
	assert.Equal(t, "tok", f.actor.token)
}

func TestHostActorAppliesAndAcks(t *testing.T) {
	t.Parallel()

	f := newActorFixture(t)
	f.inbound.PushLifecycle(queue.EventConnected, "tok")
	require.NoError(t, f.inbound.PushCommand(setToneCmd("tok", "c1", gojiraFX, protocol.Param{Index: 30, Value: 0.42})))

	out := f.tick()
	require.Len(t, out, 2)
	assert.Equal(t, protocol.MessageHandshake, out[0].Message.MessageType())

	ack, ok := out[1].Message.(protocol.Ack)
	require.True(t, ok)
	assert.Equal(t, "c1", ack.CommandID)
	require.Len(t, ack.AppliedParams, 1)
	assert.Equal(t, 0.42, ack.AppliedParams[0].Applied)

	v, _ := f.session.Value(string(gojiraFX), 30)
	assert.Equal(t, 0.42, v)
}

func TestHostActorLastWinsAcrossBatches(t *testing.T) {
	t.Parallel()

	f := newActorFixture(t)
	f.connect(t, "tok")

	require.NoError(t, f.inbound.PushCommand(setToneCmd("tok", "c1", gojiraFX, protocol.Param{Index: 30, Value: 0.1})))
	require.NoError(t, f.inbound.PushCommand(setToneCmd("tok", "x1", gojiraXFX, protocol.Param{Index: 30, Value: 0.7})))
	require.NoError(t, f.inbound.PushCommand(setToneCmd("tok", "c2", gojiraFX, protocol.Param{Index: 31, Value: 0.2})))
	require.NoError(t, f.inbound.PushCommand(setToneCmd("tok", "c3", gojiraFX, protocol.Param{Index: 30, Value: 0.9})))

	out := f.tick()
	require.Len(t, out, 4)

	var superseded []string
	var acked []string
	for _, env := range out {
		switch m := env.Message.(type) {
		case protocol.ErrorMessage:
			assert.Equal(t, protocol.CodeSuperseded, m.Code)
			superseded = append(superseded, m.Msg)
		case protocol.Ack:
			acked = append(acked, m.CommandID)
		}
	}
	assert.Len(t, superseded, 2)
	assert.Equal(t, []string{"x1", "c3"}, acked)

	v30, _ := f.session.Value(string(gojiraFX), 30)
	v31, _ := f.session.Value(string(gojiraFX), 31)
	assert.Equal(t, 0.9, v30)
	assert.Equal(t, 0.5, v31, "superseded batch must not be applied")
}

func TestHostActorIgnoresForeignToken(t *testing.T) {
	t.Parallel()

	f := newActorFixture(t)
	f.connect(t, "tok")

	require.NoError(t, f.inbound.PushCommand(setToneCmd("old", "c1", gojiraFX, protocol.Param{Index: 30, Value: 0.1})))
	assert.Empty(t, f.tick())

	v, _ := f.session.Value(string(gojiraFX), 30)
	assert.Equal(t, 0.5, v)
}

func TestHostActorNotReadyWithoutSession(t *testing.T) {
	t.Parallel()

	f := newActorFixture(t)
	require.NoError(t, f.inbound.PushCommand(setToneCmd("tok", "c1", gojiraFX)))

	out := f.tick()
	require.Len(t, out, 1)
	assert.Equal(t, protocol.NewError(protocol.CodeNotReady, "no active session"), out[0].Message)
}

func TestHostActorTargetNotFound(t *testing.T) {
	t.Parallel()

	f := newActorFixture(t)
	f.connect(t, "tok")

	require.NoError(t, f.inbound.PushCommand(setToneCmd("tok", "c1", "{MISSING}", protocol.Param{Index: 30, Value: 0.1})))
	out := f.tick()
	require.Len(t, out, 1)
	errMsg, ok := out[0].Message.(protocol.ErrorMessage)
	require.True(t, ok)
	assert.Equal(t, protocol.CodeTargetNotFound, errMsg.Code)
}

func TestHostActorInvalidValue(t *testing.T) {
	t.Parallel()

	f := newActorFixture(t)
	f.connect(t, "tok")

	require.NoError(t, f.inbound.PushCommand(setToneCmd("tok", "c1", gojiraFX, protocol.Param{Index: 5000, Value: 0.1})))
	out := f.tick()
	require.Len(t, out, 1)
	errMsg, ok := out[0].Message.(protocol.ErrorMessage)
	require.True(t, ok)
	assert.Equal(t, protocol.CodeInvalidValue, errMsg.Code)
}

func TestHostActorProjectChangedAndRefresh(t *testing.T) {
	t.Parallel()

	f := newActorFixture(t)
	f.connect(t, "tok")

	require.NoError(t, f.session.InsertPlugin(guitarTrack, 0, sim.PluginSpec{GUID: "{GATE}", Name: "JS: Gate", Preset: sim.PresetGeneric}))
	f.clock.Advance(time.Second)
	out := f.tick()
	require.Len(t, out, 1)
	assert.Equal(t, protocol.MessageProjectChanged, out[0].Message.MessageType())

	// A rename bumps the generation without moving instances.
	require.NoError(t, f.session.RenameTrack(guitarTrack, "Rhythm L"))
	f.clock.Advance(time.Second)
	assert.Empty(t, f.tick())

	require.NoError(t, f.session.RemovePlugin("{GATE}"))
	require.NoError(t, f.inbound.PushCommand(protocol.RefreshInstances{SessionToken: "tok"}))
	f.clock.Advance(time.Second)
	out = f.tick()
	require.Len(t, out, 1)
	hs, ok := out[0].Message.(protocol.Handshake)
	require.True(t, ok)
	assert.Equal(t, 1, hs.Instances[0].LastKnownFXIndex)
	assert.Equal(t, "Rhythm L", hs.Instances[0].TrackName)
}

func TestHostActorOwnWritesDoNotNotify(t *testing.T) {
	t.Parallel()

	f := newActorFixture(t)
	f.connect(t, "tok")

	require.NoError(t, f.inbound.PushCommand(setToneCmd("tok", "c1", gojiraFX, protocol.Param{Index: 30, Value: 0.3})))
	f.tick()
	f.clock.Advance(time.Second)
	assert.Empty(t, f.tick())
}

func TestHostActorDisconnectClearsSession(t *testing.T) {
	t.Parallel()

	f := newActorFixture(t)
	f.connect(t, "tok")
	f.inbound.PushLifecycle(queue.EventDisconnected, "tok")
	assert.Empty(t, f.tick())
	assert.Empty(t, f.actor.token)

	require.NoError(t, f.session.RemovePlugin(string(gojiraXFX)))
	f.clock.Advance(time.Second)
	assert.Empty(t, f.tick())
}

func TestHostActorStaleDisconnectKeepsNewSession(t *testing.T) {
	t.Parallel()

	f := newActorFixture(t)
	f.connect(t, "old")
	f.inbound.PushLifecycle(queue.EventConnected, "new")
	f.inbound.PushLifecycle(queue.EventDisconnected, "old")

	out := f.tick()
	require.Len(t, out, 1)
	assert.Equal(t, "new", out[0].Token)
	assert.Equal(t, "new", f.actor.token)
}

func TestHostActorRunEmitsShutdownError(t *testing.T) {
	t.Parallel()

	f := newActorFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.actor.Run(ctx, f.session) }()

	require.Eventually(t, func() bool { return f.clock.currentTicker() != nil }, time.Second, 5*time.Millisecond)
	f.inbound.PushLifecycle(queue.EventConnected, "tok")
	f.clock.currentTicker().ch <- f.clock.Now()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("host actor did not stop")
	}

	out := f.outbound.Drain()
	require.Len(t, out, 2)
	assert.Equal(t, protocol.MessageHandshake, out[0].Message.MessageType())
	assert.Equal(t, protocol.NewError(protocol.CodeInternalError, "server shutting down"), out[1].Message)
}
