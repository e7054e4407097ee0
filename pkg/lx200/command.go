// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lx200

// Command helpers run one exchange with the transceiver's base timeout and
// hand back the reply without its '#' terminator.

// Command sends cmd and returns the reply with the terminator removed.
// The reply is returned even when err is ErrTruncated.
func (t *Transceiver) Command(cmd string) (string, error) {
	var resp Response
	err := t.Exchange([]byte(cmd), &resp, t.config.Timeout)
	resp.TrimTerminator()
	return resp.String(), err
}

// CommandBlind sends cmd and discards the reply
func (t *Transceiver) CommandBlind(cmd string) error {
	var resp Response
	return t.Exchange([]byte(cmd), &resp, t.config.Timeout)
}

// CommandEcho wraps payload as ":EC<payload>#" and sends it, discarding
// the reply.
func (t *Transceiver) CommandEcho(payload string) error {
	return t.CommandBlind(EchoCommand(payload))
}

// CommandBool sends cmd and interprets a one character reply: '0' is
// false, anything else is true. Failures and any other reply are false.
func (t *Transceiver) CommandBool(cmd string) bool {
	reply, err := t.Command(cmd)
	if err != nil || len(reply) != 1 {
		return false
	}
	return reply[0] != '0'
}

// CommandString sends cmd and returns the reply, or "?" if the exchange
// failed.
func (t *Transceiver) CommandString(cmd string) string {
	reply, err := t.Command(cmd)
	if err != nil {
		return "?"
	}
	return reply
}

// EchoCommand returns the echo envelope for payload
func EchoCommand(payload string) string {
	return ":EC" + payload + "#"
}
