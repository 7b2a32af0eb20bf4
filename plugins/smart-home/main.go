// Package main provides the smart home subsystem plugin.
// It switches the exhibit room lighting scene through a local HTTP
// bridge when the subsystem starts and restores it on stop.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Request represents the input from the plugin executor.
type Request struct {
	Op        string          `json:"op"`
	Subsystem string          `json:"subsystem"`
	Config    json.RawMessage `json:"config"`
	Params    json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// config holds the bridge settings, overridable via the request config.
type config struct {
	BridgeURL   string `json:"bridge_url"`
	ActiveScene string `json:"active_scene"`
	IdleScene   string `json:"idle_scene"`
}

func defaultConfig() config {
	return config{
		BridgeURL:   "http://127.0.0.1:8123/api/scene",
		ActiveScene: "exhibit_active",
		IdleScene:   "exhibit_idle",
	}
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	cfg := defaultConfig()
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}

	var scene string
	switch req.Op {
	case "start":
		scene = cfg.ActiveScene
	case "stop":
		scene = cfg.IdleScene
	default:
		writeErrorResponse(fmt.Sprintf("unknown op: %s", req.Op))
		return
	}

	if err := activateScene(cfg.BridgeURL, scene); err != nil {
		writeErrorResponse(fmt.Sprintf("op %s failed: %v", req.Op, err))
		return
	}

	writeSuccessResponse(scene)
}

// activateScene posts the scene name to the lighting bridge.
func activateScene(bridgeURL, scene string) error {
	body, err := json.Marshal(map[string]string{"scene": scene})
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Post(bridgeURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bridge returned status %d", resp.StatusCode)
	}
	return nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse(scene string) {
	data, _ := json.Marshal(map[string]string{"scene": scene})
	resp := Response{
		Success: true,
		Data:    data,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
