package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig says how to reach a broker and which topics carry ops.
type MQTTConfig struct {
	// Broker is something like "tcp://localhost:1883".
	Broker   string `json:"broker"`
	ClientId string `json:"clientId,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// SubTopics is a comma-separated list of subscription topics,
	// each optionally of the form TOPIC:QOS.
	SubTopics string `json:"subTopics"`

	// PubTopic gets each completed op.
	PubTopic string `json:"pubTopic,omitempty"`

	KeepAlive time.Duration `json:"keepAlive,omitempty"`

	// Quiesce is the disconnection quiescence in milliseconds.
	Quiesce uint `json:"quiesce,omitempty"`

	Insecure bool `json:"insecure,omitempty"`
}

// MQTTService subscribes to the config's ops topics.  Each in-bound
// message is an op to perform; the op (with its results) is published
// to the config's PubTopic.
func (s *Service) MQTTService(ctx context.Context, conf *MQTTConfig) error {
	if conf.Broker == "" {
		return fmt.Errorf("no broker given")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(conf.Broker)
	opts.SetClientID(conf.ClientId)
	opts.Username = conf.Username
	opts.Password = conf.Password
	if conf.KeepAlive != 0 {
		opts.SetKeepAlive(conf.KeepAlive)
	}
	opts.SetTLSConfig(&tls.Config{
		InsecureSkipVerify: conf.Insecure,
	})

	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Printf("MQTT connection lost")
	}

	var client mqtt.Client

	publish := func(x interface{}) {
		if conf.PubTopic == "" {
			return
		}
		js, err := json.Marshal(&x)
		if err != nil {
			s.err(err)
			return
		}
		topic, qos := parseTopic(conf.PubTopic)
		if t := client.Publish(topic, qos, false, js); t.Wait() && t.Error() != nil {
			s.err(t.Error())
		}
	}

	opts.DefaultPublishHandler = func(client mqtt.Client, msg mqtt.Message) {
		Logf("MQTT heard %s %s", msg.Topic(), msg.Payload())

		var op SOp
		if err := json.Unmarshal(msg.Payload(), &op); err != nil {
			s.err(fmt.Errorf("MQTT can't parse op on '%s': %s", msg.Topic(), err))
			return
		}
		if err := op.Do(ctx, s); err != nil {
			Logf("MQTT op error %s", err)
		}
		publish(&op)
	}

	client = mqtt.NewClient(opts)

	log.Printf("MQTTService connecting to %s", conf.Broker)
	if t := client.Connect(); t.Wait() && t.Error() != nil {
		return t.Error()
	}

	for _, topic := range strings.Split(conf.SubTopics, ",") {
		topic, qos := parseTopic(topic)
		if topic == "" {
			continue
		}
		log.Printf("MQTTService subscribing to %s (%d)", topic, qos)
		if t := client.Subscribe(topic, qos, nil); t.Wait() && t.Error() != nil {
			return t.Error()
		}
	}

	<-ctx.Done()

	log.Printf("MQTTService disconnecting")
	client.Disconnect(conf.Quiesce)

	return nil
}

// parseTopic can extract QoS from a topic name of the form TOPIC:QOS.
func parseTopic(s string) (string, byte) {
	var topic string
	var qos byte
	if _, err := fmt.Sscanf(strings.Replace(s, ":", " ", 1), "%s %d", &topic, &qos); err != nil {
		return s, 0
	}
	return topic, qos
}
