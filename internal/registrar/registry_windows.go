//go:build windows

package registrar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/slok/instl/internal/log"
	"github.com/slok/instl/internal/model"
)

const (
	envKeyPath      = `Environment`
	pathValueName   = "Path"
	hwndBroadcast   = 0xFFFF
	wmSettingChange = 0x001A
	smtoAbortIfHung = 0x0002
)

// UserEnvRegistryConfig is the configuration for the user environment registrar.
type UserEnvRegistryConfig struct {
	Logger log.Logger
}

func (c *UserEnvRegistryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "registrar.UserEnvRegistry"})
	return nil
}

// UserEnvRegistry registers directories on the current user Path (HKCU\Environment).
type UserEnvRegistry struct {
	logger log.Logger
}

// NewUserEnvRegistry returns a new user environment registry registrar.
func NewUserEnvRegistry(cfg UserEnvRegistryConfig) (*UserEnvRegistry, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &UserEnvRegistry{logger: cfg.Logger}, nil
}

// Register appends the directory to the user Path when missing.
func (u *UserEnvRegistry) Register(ctx context.Context, dir string) error {
	key, err := registry.OpenKey(registry.CURRENT_USER, envKeyPath, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("could not open user environment: %w: %w", model.ErrPersistFailed, err)
	}
	defer key.Close()

	current, valType, err := key.GetStringValue(pathValueName)
	if err != nil && !errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("could not read user path: %w: %w", model.ErrPersistFailed, err)
	}

	for _, p := range strings.Split(current, ";") {
		if strings.EqualFold(strings.TrimRight(strings.TrimSpace(p), `\`), strings.TrimRight(dir, `\`)) {
			u.logger.Debugf("%s already on user path", dir)
			return nil
		}
	}

	newPath := dir
	if current != "" {
		newPath = strings.TrimRight(current, ";") + ";" + dir
	}

	if valType == registry.EXPAND_SZ {
		err = key.SetExpandStringValue(pathValueName, newPath)
	} else {
		err = key.SetStringValue(pathValueName, newPath)
	}
	if err != nil {
		return fmt.Errorf("could not write user path: %w: %w", model.ErrPersistFailed, err)
	}

	u.logger.Infof("Added %s to user path", dir)
	broadcastEnvironmentChange()

	return nil
}

// broadcastEnvironmentChange notifies running applications so new terminals get the new Path.
func broadcastEnvironmentChange() {
	env, err := windows.UTF16PtrFromString("Environment")
	if err != nil {
		return
	}
	proc := windows.NewLazySystemDLL("user32.dll").NewProc("SendMessageTimeoutW")
	_, _, _ = proc.Call(
		uintptr(hwndBroadcast),
		uintptr(wmSettingChange),
		0,
		uintptr(unsafe.Pointer(env)),
		uintptr(smtoAbortIfHung),
		uintptr(5000),
		0,
	)
}
