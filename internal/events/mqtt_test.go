package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	token        mqtt.Token
	sent         []published
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return c.token
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestStatusTopic(t *testing.T) {
	assert.Equal(t, "jaybesin/shipments/JB-CN-123456/status", StatusTopic(" jb-cn-123456 "))
	assert.Equal(t, "jaybesin/shipments/A_B_C_/status", StatusTopic("a/b+c#"))
}

func TestMQTTPublisher_Publish(t *testing.T) {
	c := &fakeClient{token: completedToken(nil)}
	p := NewMQTTPublisherWithClient(c)

	ev := StatusEvent{TrackingNumber: "JB-CN-100200", Status: "In Transit (High Seas)", StageIndex: 5, Progress: 60}
	require.NoError(t, p.Publish(context.Background(), ev.TrackingNumber, ev))
	require.Len(t, c.sent, 1)

	msg := c.sent[0]
	assert.Equal(t, "jaybesin/shipments/JB-CN-100200/status", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.True(t, msg.retained)

	var got StatusEvent
	require.NoError(t, json.Unmarshal(msg.payload, &got))
	assert.Equal(t, 60, got.Progress)
}

func TestMQTTPublisher_TokenError(t *testing.T) {
	c := &fakeClient{token: completedToken(errors.New("not connected"))}
	p := NewMQTTPublisherWithClient(c)

	err := p.Publish(context.Background(), "JB-CN-100200", StatusEvent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestMQTTPublisher_ContextDone(t *testing.T) {
	c := &fakeClient{token: &fakeToken{done: make(chan struct{})}}
	p := NewMQTTPublisherWithClient(c)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Publish(ctx, "JB-CN-100200", StatusEvent{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMQTTPublisher_Close(t *testing.T) {
	c := &fakeClient{}
	p := NewMQTTPublisherWithClient(c)
	require.NoError(t, p.Close())
	assert.True(t, c.disconnected)
}
