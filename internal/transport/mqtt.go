package transport

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"moth/internal/logs"
)

// MQTTSink публикует каждую строку потока в топик брокера, QoS 0:
// доставка best-effort, в тон остальному потоку.
type MQTTSink struct {
	client mqtt.Client
	topic  string
}

func NewMQTTSink(broker, clientID, topic string) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logs.Logger.Warnf("mqtt connection lost: %v", err)
	}
	opts.OnConnect = func(_ mqtt.Client) {
		logs.Logger.Infof("mqtt connected, publishing to %s", topic)
	}

	c := mqtt.NewClient(opts)
	if tk := c.Connect(); tk.Wait() && tk.Error() != nil {
		return nil, fmt.Errorf("transport: mqtt connect: %w", tk.Error())
	}
	return &MQTTSink{client: c, topic: topic}, nil
}

func (s *MQTTSink) WriteLine(line string) {
	// не ждём подтверждения: поток не должен стоять из-за брокера
	s.client.Publish(s.topic, 0, false, line)
}

// Ready — проверка готовности для /readyz.
func (s *MQTTSink) Ready() error {
	if !s.client.IsConnected() {
		return errors.New("mqtt broker unreachable")
	}
	return nil
}

func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	return nil
}
