package protocol

// pingService tracks the exponential moving average of round-trip time and
// derives the one-way forward delay fed to the sync engine as its latency
// sample δ.
//
// Grounded in original_source/network/ping.rs::PingService.
type pingService struct {
	avrRTT float64
	seeded bool
}

// observe records one RTT sample (seconds) and updates the smoothed
// average: avrRTT = avrRTT*0.85 + rtt*0.15, seeded to rtt on first sample.
func (p *pingService) observe(rtt float64) {
	if !p.seeded {
		p.avrRTT = rtt
		p.seeded = true
		return
	}
	p.avrRTT = p.avrRTT*0.85 + rtt*0.15
}

// forwardDelay derives δ: half the smoothed RTT, plus the excess of our
// RTT over the server's own reported RTT when ours is larger.
func (p *pingService) forwardDelay(rtt, serverRTT float64) float64 {
	if serverRTT > 0 && serverRTT < rtt {
		return p.avrRTT/2 + (rtt - serverRTT)
	}
	return p.avrRTT / 2
}
