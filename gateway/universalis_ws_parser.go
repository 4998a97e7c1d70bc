package gateway

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"market-alerts-go/market"
)

// SubscribeMessage 对应订阅控制消息（每次连接发送一次）。
type SubscribeMessage struct {
	Event   string `bson:"event"`
	Channel string `bson:"channel"`
}

// EncodeSubscribe serializes the subscription control message for channel.
func EncodeSubscribe(channel string) ([]byte, error) {
	return bson.Marshal(SubscribeMessage{Event: "subscribe", Channel: channel})
}

// DecodeSubscribe is the inverse of EncodeSubscribe; only tests need it.
func DecodeSubscribe(raw []byte) (SubscribeMessage, error) {
	var msg SubscribeMessage
	if err := bson.Unmarshal(raw, &msg); err != nil {
		return SubscribeMessage{}, fmt.Errorf("decode subscribe: %w", err)
	}
	return msg, nil
}

// DecodeEvent 解析一帧 BSON 事件。解码失败只丢弃该帧，绝不影响连接。
func DecodeEvent(raw []byte) (market.Event, error) {
	var ev market.Event
	if err := bson.Unmarshal(raw, &ev); err != nil {
		return market.Event{}, fmt.Errorf("decode frame: %w", err)
	}
	// The feed never uses id 0; treat absence as a malformed frame.
	if ev.ItemID == 0 || ev.WorldID == 0 {
		return market.Event{}, errors.New("frame missing item or world id")
	}
	return ev, nil
}

// EncodeEvent serializes a market event frame. The daemon only decodes;
// the encoder exists for round-trip tests and local feed simulation.
func EncodeEvent(ev market.Event) ([]byte, error) {
	return bson.Marshal(ev)
}
