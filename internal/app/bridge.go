package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/relabs-tech/inertial_replay/internal/config"
	"github.com/relabs-tech/inertial_replay/internal/source"
)

// statusPayload is published on the status topic every tick.
type statusPayload struct {
	Label string `json:"label"`
	Time  string `json:"time"`
}

// bridgeMessage is one retained MQTT publish.
type bridgeMessage struct {
	Topic   string
	Payload []byte
}

// bridgeMessages splits a frame into its per-topic payloads.
func bridgeMessages(cfg *config.Config, f Frame) ([]bridgeMessage, error) {
	parts := []struct {
		topic string
		v     any
	}{
		{cfg.TopicEstimate, f.Estimate},
		{cfg.TopicReference, f.Reference},
		{cfg.TopicArrows, f.Arrows},
		{cfg.TopicStatus, statusPayload{Label: f.Label, Time: f.Time}},
	}

	msgs := make([]bridgeMessage, 0, len(parts))
	for _, p := range parts {
		payload, err := json.Marshal(p.v)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", p.topic, err)
		}
		msgs = append(msgs, bridgeMessage{Topic: p.topic, Payload: payload})
	}
	return msgs, nil
}

// RunBridge polls src once per cfg.PollInterval and publishes each frame
// to MQTT until ctx is done.
func RunBridge(ctx context.Context, src source.Source, cfg *config.Config) error {
	log.Println("starting gyro replay MQTT bridge")

	// --- connect to MQTT ---
	clientID := fmt.Sprintf("%s-%s", cfg.MQTTClientIDBridge, uuid.NewString()[:8])
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	defer client.Disconnect(250)

	log.Printf("bridge: connected to MQTT broker at %s as %s, starting publish loop", cfg.MQTTBroker, clientID)

	// main tick
	ticker := time.NewTicker(time.Duration(cfg.PollInterval) * time.Millisecond)
	defer ticker.Stop()

	var lastLabel string
	for {
		select {
		case <-ctx.Done():
			log.Println("bridge: shutting down")
			return nil
		case t := <-ticker.C:
			f := Poll(src, t)

			msgs, err := bridgeMessages(cfg, f)
			if err != nil {
				log.Printf("bridge: %v", err)
				continue
			}
			for _, m := range msgs {
				if token := client.Publish(m.Topic, 0, true, m.Payload); token.Wait() && token.Error() != nil {
					log.Printf("bridge: MQTT publish error (%s): %v", m.Topic, token.Error())
				}
			}

			// Log link transitions, not every tick.
			if (f.Label == "Offline") != (lastLabel == "Offline") {
				log.Printf("bridge: %s", f.Label)
			}
			lastLabel = f.Label
		}
	}
}
