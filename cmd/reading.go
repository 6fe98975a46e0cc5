package main

import "time"

// SensorReading mirrors original_source/config.h's sensor_data_t: a
// sensor id, a value, and a timestamp. This is the concrete payload type
// the CLI demos plug into sbuf.Stream[SensorReading].
type SensorReading struct {
	ID        uint16
	Value     float64
	Timestamp int64
}

func newReading(id uint16, value float64) SensorReading {
	return SensorReading{ID: id, Value: value, Timestamp: time.Now().Unix()}
}
