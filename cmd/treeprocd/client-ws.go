package main

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"regexp"

	"github.com/gorilla/websocket"
)

// WebSocketClient connects out to a remote ops feed.  Each in-bound
// message is an op to perform; the op (with its results) is written
// back, as is anything pushed to s.wsClientC.
func (s *Service) WebSocketClient(ctx context.Context, urls string) error {

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	u, err := url.Parse(urls)
	if err != nil {
		return err
	}

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return err
	}
	defer c.Close()

	log.Printf("Service.WebSocketClient starting: %s", urls)

	s.wsClientC = make(chan interface{}, 10) // ?

	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Printf("WebSocketClient reader closing per ctx")
				return
			default:
			}

			_, message, err := c.ReadMessage()
			if err != nil {
				s.err(err)
				continue
			}
			Logf("wsclient heard %s", message)

			var op SOp
			if err = json.Unmarshal(message, &op); err != nil {
				s.err(err)
				continue
			}

			if err = op.Do(ctx, s); err != nil {
				s.err(err)
			}

			select {
			case s.wsClientC <- &op:
			default:
				log.Printf("WebSocketClient reply channel blocked")
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Printf("WebSocketClient writer closing per ctx")
			return nil
		case x := <-s.wsClientC:
			js, err := json.Marshal(&x)
			if err != nil {
				s.err(err)
				continue
			}

			js = withEnvVars(js)

			Logf("WebSocketClient writer writing %s", js)

			if err = c.WriteMessage(websocket.TextMessage, js); err != nil {
				s.err(err)
				continue
			}
		}
	}
}

// withEnvVars replaces all substrings matching envVars with their
// corresponding values of environment variables.
func withEnvVars(msg []byte) []byte {
	// ToDo: Make more efficient!
	return envVars.ReplaceAllFunc(msg, func(bs []byte) []byte {
		if val := os.Getenv(string(bs[1:])); val != "" {
			return []byte(val)
		}
		return bs
	})
}

// envVars matches strings that get expanded based on the environment.
// See withEnvVars.
var envVars = regexp.MustCompile(`\$TREEPROC_\w+`)
