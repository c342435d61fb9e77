package thermal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	temperatureMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fanctrl_thermal",
		Name:      "temperature_millicelsius",
		Help:      "Highest temperature across all sources in the last iteration, fail-safe substitutions included",
	})
	targetPwmMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fanctrl_thermal",
		Name:      "target_pwm",
		Help:      "PWM value computed in the last iteration",
	})
	pwmWritesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fanctrl_thermal",
		Name:      "pwm_writes_total",
		Help:      "Number of iterations that changed the PWM value and wrote it to the sinks",
	})
	sourceErrorsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fanctrl_thermal",
		Name:      "source_errors_total",
		Help:      "Failed temperature reads, replaced by the fail-safe temperature",
	}, []string{"source"})
	sinkErrorsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fanctrl_thermal",
		Name:      "sink_errors_total",
		Help:      "Failed PWM writes",
	}, []string{"sink"})
)
