package models

type ColorMode string

const (
	ColorModeLight ColorMode = "light"
	ColorModeDark  ColorMode = "dark"
)

func (m ColorMode) Valid() bool {
	return m == ColorModeLight || m == ColorModeDark
}

func (m ColorMode) Toggle() ColorMode {
	if m == ColorModeLight {
		return ColorModeDark
	}
	return ColorModeLight
}

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
)

type Notification struct {
	ID      string           `json:"id"`
	Type    NotificationType `json:"type"`
	Message string           `json:"message"`
}
