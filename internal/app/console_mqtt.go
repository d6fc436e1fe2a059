package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/relabs-tech/inertial_replay/internal/config"
)

// consoleHandlers maps each bridge topic to a printer writing to out.
func consoleHandlers(cfg *config.Config, out io.Writer) map[string]func(payload []byte) {
	printAttitude := func(tag string) func([]byte) {
		return func(payload []byte) {
			var a Attitude
			if err := json.Unmarshal(payload, &a); err != nil {
				log.Printf("console: %s unmarshal error: %v", tag, err)
				return
			}
			fmt.Fprintf(out,
				"[%s]  ROLL=%7.2f  PITCH=%7.2f  YAW=%7.2f  q=(%.4f %.4f %.4f %.4f)\n",
				tag, a.Pose.Roll, a.Pose.Pitch, a.Pose.Yaw, a.Quat.W, a.Quat.X, a.Quat.Y, a.Quat.Z,
			)
		}
	}

	return map[string]func([]byte){
		cfg.TopicEstimate:  printAttitude("EST"),
		cfg.TopicReference: printAttitude("REF"),
		cfg.TopicArrows: func(payload []byte) {
			var a Arrows
			if err := json.Unmarshal(payload, &a); err != nil {
				log.Printf("console: arrows unmarshal error: %v", err)
				return
			}
			fmt.Fprintf(out,
				"[ARR]  ax=%8.3f ay=%8.3f az=%8.3f  mx=%8.3f my=%8.3f mz=%8.3f  tilt R=%7.2f P=%7.2f\n",
				a.Accel.X, a.Accel.Y, a.Accel.Z, a.Mag.X, a.Mag.Y, a.Mag.Z, a.Tilt.Roll, a.Tilt.Pitch,
			)
		},
		cfg.TopicStatus: func(payload []byte) {
			var s statusPayload
			if err := json.Unmarshal(payload, &s); err != nil {
				log.Printf("console: status unmarshal error: %v", err)
				return
			}
			fmt.Fprintf(out, "[STAT] %s  %s\n", s.Time, s.Label)
		},
	}
}

// RunConsoleMQTT prints everything the bridge publishes until Ctrl+C.
func RunConsoleMQTT(cfg *config.Config) error {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(fmt.Sprintf("%s-%s", cfg.MQTTClientIDConsole, uuid.NewString()[:8]))

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	for topic, handle := range consoleHandlers(cfg, os.Stdout) {
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			handle(msg.Payload())
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to %s", topic)
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
