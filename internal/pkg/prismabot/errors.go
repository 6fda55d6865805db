package prismabot

import "errors"

// MessengerExistsError indicates registering Messenger with a id that already exists in the list
type MessengerExistsError struct {
	ID string
}

// MessengerInvalidError indicates requesting a non-registered Messenger id
type MessengerInvalidError struct {
	ID string
}

// PluginExistsError indicates two plugins reporting the same id
type PluginExistsError struct {
	ID string
}

// ErrDatabaseDisabled is returned to database requests when no database is configured
var ErrDatabaseDisabled = errors.New("database disabled")

// ConfigError indicates a missing or malformed configuration value
type ConfigError struct {
	Key string
	Msg string
}

func (e MessengerExistsError) Error() string {
	return "Messenger: " + e.ID + " has already been registered"
}

func (e MessengerInvalidError) Error() string {
	return "Messenger: " + e.ID + " does not exist"
}

func (e PluginExistsError) Error() string {
	return "Plugin: " + e.ID + " has already been registered"
}

func (e ConfigError) Error() string {
	return "config " + e.Key + ": " + e.Msg
}
