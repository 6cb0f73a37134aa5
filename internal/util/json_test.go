package util

import "testing"

func TestMarshalUnmarshalString(t *testing.T) {
	type record struct {
		Hosts []string `json:"hosts"`
		Time  int64    `json:"time"`
	}
	s, err := MarshalString(record{Hosts: []string{"a.test"}, Time: 1700000000000})
	if err != nil {
		t.Fatal(err)
	}
	if s != `{"hosts":["a.test"],"time":1700000000000}` {
		t.Fatalf("MarshalString() = %s", s)
	}

	var got record
	if err := UnmarshalString(`{"hosts":["b.test"],"time":1}`, &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Hosts) != 1 || got.Hosts[0] != "b.test" || got.Time != 1 {
		t.Fatalf("UnmarshalString() = %+v", got)
	}

	if err := UnmarshalString("{bad", &got); err == nil {
		t.Fatal("非法JSON应返回错误")
	}
}
