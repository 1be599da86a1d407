// Package ui provides the graphical user interface for the Bitmask client.
// This file contains desktop notifications sent over D-Bus.
package ui

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/yllada/bitmask-client/common"
)

const (
	notificationsDest  = "org.freedesktop.Notifications"
	notificationsPath  = "/org/freedesktop/Notifications"
	notificationsIface = "org.freedesktop.Notifications"

	defaultNotifyIcon = "network-vpn"
	notifyTimeoutMs   = 5000
)

// Notifier sends desktop notifications through the session bus.
// It implements common.Notifier.
type Notifier struct {
	mu   sync.Mutex
	conn *dbus.Conn
}

var _ common.Notifier = (*Notifier)(nil)

// NewNotifier creates a notifier. The bus connection is opened lazily.
func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) bus() (*dbus.Conn, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn != nil && n.conn.Connected() {
		return n.conn, nil
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}
	n.conn = conn
	return conn, nil
}

// Notify sends a notification with the default icon.
func (n *Notifier) Notify(title, message string) error {
	return n.NotifyWithIcon(title, message, defaultNotifyIcon)
}

// NotifyWithIcon sends a notification with icon.
func (n *Notifier) NotifyWithIcon(title, message, icon string) error {
	conn, err := n.bus()
	if err != nil {
		return err
	}

	obj := conn.Object(notificationsDest, notificationsPath)
	call := obj.Call(notificationsIface+".Notify", 0,
		common.AppName,
		uint32(0),
		icon,
		title,
		message,
		[]string{},
		map[string]dbus.Variant{},
		int32(notifyTimeoutMs),
	)
	if call.Err != nil {
		return fmt.Errorf("sending notification: %w", call.Err)
	}
	return nil
}

// Close closes the bus connection.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil {
		return nil
	}
	err := n.conn.Close()
	n.conn = nil
	return err
}

// NotifyEIPConnected shows a notification when EIP connects.
func NotifyEIPConnected(n common.Notifier, provider string) {
	message := "Your traffic is routed through the encrypted tunnel"
	if provider != "" {
		message = "Connected to " + provider
	}
	if err := n.NotifyWithIcon("Encrypted Internet ON", message, "network-vpn"); err != nil {
		log.Warn("Notification failed: %v", err)
	}
}

// NotifyEIPDisconnected shows a notification when EIP stops.
func NotifyEIPDisconnected(n common.Notifier) {
	if err := n.NotifyWithIcon("Encrypted Internet OFF", "The encrypted tunnel has been closed", "network-vpn-disconnected"); err != nil {
		log.Warn("Notification failed: %v", err)
	}
}

// NotifyError shows a notification for an error.
func NotifyError(n common.Notifier, title, message string) {
	if err := n.NotifyWithIcon(title, message, "dialog-error"); err != nil {
		log.Warn("Notification failed: %v", err)
	}
}
