// internal/printer/configure.go
package printer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

// MediaType selects how the printer senses and feeds its media.
type MediaType string

const (
	MediaLabel     MediaType = "LABEL"
	MediaBlackMark MediaType = "BLACK_MARK"
	MediaJournal   MediaType = "JOURNAL"
)

// calibrateCommand forces a media calibration pass.
const calibrateCommand = "~jc^xa^jus^xz"

// darknessSteps are the coarse darkness presets accepted alongside the fine
// -30..30 delta range.
var darknessSteps = map[int]bool{
	0: true, 25: true, 50: true, 75: true, 100: true,
	125: true, 150: true, 175: true, 200: true,
}

// ValidDarkness reports whether a darkness value is acceptable: either one
// of the preset steps or a fine adjustment between -30 and 30.
func ValidDarkness(darkness int) bool {
	if darknessSteps[darkness] {
		return true
	}
	return darkness >= -30 && darkness <= 30
}

// DarknessCommand returns the SGD command that sets print darkness.
func DarknessCommand(darkness int) string {
	return fmt.Sprintf("! U1 setvar \"print.tone\" \"%d\"\r\n", darkness)
}

// MediaCommand returns the SGD sequence that configures the media type.
// Label and black-mark media end with a calibration pass so the new sense
// mode takes effect.
func MediaCommand(media MediaType) (string, error) {
	switch media {
	case MediaLabel:
		return "! U1 setvar \"media.type\" \"label\"\r\n" +
			"! U1 setvar \"media.sense_mode\" \"gap\"\r\n" +
			calibrateCommand, nil
	case MediaBlackMark:
		return "! U1 setvar \"media.type\" \"label\"\r\n" +
			"! U1 setvar \"media.sense_mode\" \"bar\"\r\n" +
			calibrateCommand, nil
	case MediaJournal:
		return "! U1 setvar \"media.type\" \"journal\"\r\n", nil
	default:
		return "", model.NewError(model.ErrValidation, "unknown media type: "+string(media))
	}
}

// Configurator sends device settings to the connected printer.
type Configurator struct {
	manager *Manager
	logger  *zap.Logger
}

// NewConfigurator creates a configurator bound to the connection manager.
func NewConfigurator(manager *Manager, logger *zap.Logger) *Configurator {
	return &Configurator{
		manager: manager,
		logger:  logger.With(zap.String("component", "configurator")),
	}
}

// SetDarkness adjusts print darkness on the connected printer.
func (c *Configurator) SetDarkness(darkness int) error {
	if !ValidDarkness(darkness) {
		return model.NewError(model.ErrValidation,
			fmt.Sprintf("invalid darkness %d: use a preset step or a value between -30 and 30", darkness))
	}
	return c.send(DarknessCommand(darkness), "darkness", zap.Int("darkness", darkness))
}

// SetMediaType configures how the printer senses its media.
func (c *Configurator) SetMediaType(media MediaType) error {
	command, err := MediaCommand(media)
	if err != nil {
		return err
	}
	return c.send(command, "media type", zap.String("media", string(media)))
}

// Calibrate runs a media calibration pass.
func (c *Configurator) Calibrate() error {
	return c.send(calibrateCommand, "calibration")
}

// SendSettings writes a raw settings string to the connected printer, for
// SGD or ZPL configuration not covered by the typed setters.
func (c *Configurator) SendSettings(settings string) error {
	if settings == "" {
		return model.NewError(model.ErrValidation, "settings payload is empty")
	}
	return c.send(settings, "raw settings", zap.Int("size", len(settings)))
}

func (c *Configurator) send(command, what string, fields ...zap.Field) error {
	t, address, _, ok := c.manager.Current()
	if !ok {
		return model.NewError(model.ErrNotConnected, "no printer is connected")
	}

	if _, err := t.Write([]byte(command)); err != nil {
		return model.WrapError(model.ErrConnectionLost, "failed to send "+what, err)
	}

	c.logger.Info("Settings applied",
		append(fields, zap.String("setting", what), zap.String("address", address))...)
	return nil
}
