package eip

// Status steps reported by OpenVPN, plus ALREADYRUNNING.
const (
	StatusConnecting     = "CONNECTING"
	StatusWait           = "WAIT"
	StatusAuth           = "AUTH"
	StatusGetConfig      = "GET_CONFIG"
	StatusAssignIP       = "ASSIGN_IP"
	StatusAddRoutes      = "ADD_ROUTES"
	StatusConnected      = "CONNECTED"
	StatusReconnecting   = "RECONNECTING"
	StatusExiting        = "EXITING"
	StatusAlreadyRunning = "ALREADYRUNNING"
)

// Keys of the status data map.
const (
	TunTapReadKey  = "tun_tap_read"
	TunTapWriteKey = "tun_tap_write"
	StatusStepKey  = "status_step"
	LocalIPKey     = "local_ip"
	RemoteIPKey    = "remote_ip"
)

// Data is one status update.
type Data map[string]string

// Step returns the status step in d, if any.
func (d Data) Step() string {
	return d[StatusStepKey]
}

func (d Data) clone() Data {
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
