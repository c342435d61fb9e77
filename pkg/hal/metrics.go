package hal

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pwmDutyCycle = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fanctrl",
		Name:      "pwm",
		Help:      "PWM duty cycle (0-255) last written or initialised per channel",
	}, []string{"channel"})
	pwmEnabled = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fanctrl",
		Name:      "pwm_enabled",
		Help:      "Whether the channel is enabled",
	}, []string{"channel"})
	fanSpeed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fanctrl",
		Name:      "fan_rpm",
		Help:      "Fan speed in RPM as of the last tachometer read",
	}, []string{"channel"})
)

func channelLabel(channel int) string {
	return strconv.Itoa(channel)
}
