package halkit

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

const slaveHttpTimeoutsMs = 3000

// HalSlave exposes peripheral status and LED control over HTTP, so the
// simulated hardware can be poked from outside the process.
type HalSlave struct {
	Token    string
	HttpAddr string

	kit    *HalKit
	server *http.Server
	ready  bool

	serverErr chan error
}

func (hs *HalSlave) Setup() error {
	handler := httprouter.New()
	handler.GET("/status/token/:token", hs.handleStatus)
	handler.GET("/sensor/reading/token/:token", hs.handleReading)
	handler.GET("/led/:action/token/:token", hs.handleLed)

	httpTimeout := slaveHttpTimeoutsMs * time.Millisecond

	hs.server = &http.Server{
		Addr:              hs.HttpAddr,
		Handler:           handler,
		ReadTimeout:       httpTimeout,
		ReadHeaderTimeout: httpTimeout,
		WriteTimeout:      httpTimeout,
		IdleTimeout:       2 * httpTimeout,
	}

	hs.serverErr = make(chan error)

	hs.ready = true
	go func() {
		hs.serverErr <- hs.server.ListenAndServe()
		hs.ready = false
	}()

	return nil
}

func (hs *HalSlave) IsReady() bool {
	return hs.ready
}

func (hs *HalSlave) Close() error {
	if hs.server == nil {
		return nil
	}
	return hs.server.Close()
}

func (hs *HalSlave) checkToken(w http.ResponseWriter, p httprouter.Params) bool {
	if !strings.EqualFold(p.ByName("token"), hs.Token) {
		http.Error(w, "token mismatch", http.StatusUnauthorized)
		return false
	}
	return true
}

func (hs *HalSlave) handleStatus(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if !hs.checkToken(w, p) {
		return
	}

	status := map[string]interface{}{}
	if uart := hs.kit.UartPort(); uart != nil {
		status["uart"] = uart.Config()
	}
	if hs.kit.Led != nil {
		status["led"] = hs.kit.Led.GetState().String()
	}
	if hs.kit.Sensor != nil {
		status["sensor_ready"] = hs.kit.Sensor.IsReady()
	}
	if gpio := hs.kit.Gpio(); gpio != nil {
		status["gpio_pins"] = gpio.ActivePins()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (hs *HalSlave) handleReading(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if !hs.checkToken(w, p) {
		return
	}

	if hs.kit.Sensor == nil {
		http.Error(w, "sensor not present", http.StatusNotFound)
		return
	}

	var reading Reading
	if err := hs.kit.Sensor.Read(&reading); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reading)
}

func (hs *HalSlave) handleLed(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if !hs.checkToken(w, p) {
		return
	}

	if hs.kit.Led == nil {
		http.Error(w, "led not present", http.StatusNotFound)
		return
	}

	var err error
	switch p.ByName("action") {
	case "on":
		err = hs.kit.Led.SetState(LedOn)
	case "off":
		err = hs.kit.Led.SetState(LedOff)
	case "toggle":
		err = hs.kit.Led.Toggle()
	default:
		http.Error(w, "unrecognized led action", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":    true,
		"state": hs.kit.Led.GetState().String(),
	})
}
