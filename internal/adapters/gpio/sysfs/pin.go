package sysfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bnema/goalpanel/internal/ports"
)

const DefaultRoot = "/sys/class/gpio"

// Pin drives one GPIO line through the legacy sysfs interface.
type Pin struct {
	Root   string
	Number int

	exported bool
}

var _ ports.PowerPin = (*Pin)(nil)

func NewPin(root string, number int) *Pin {
	if root == "" {
		root = DefaultRoot
	}
	return &Pin{Root: root, Number: number}
}

func (p *Pin) High() error {
	if err := p.output(); err != nil {
		return err
	}
	return p.write("value", "1")
}

func (p *Pin) Low() error {
	if err := p.output(); err != nil {
		return err
	}
	return p.write("value", "0")
}

// Release switches the line back to input so it floats.
func (p *Pin) Release() error {
	if err := p.export(); err != nil {
		return err
	}
	return p.write("direction", "in")
}

func (p *Pin) Value() (bool, error) {
	data, err := os.ReadFile(p.attr("value"))
	if err != nil {
		return false, fmt.Errorf("read gpio%d value: %w", p.Number, err)
	}
	return len(data) > 0 && data[0] == '1', nil
}

func (p *Pin) output() error {
	if err := p.export(); err != nil {
		return err
	}
	return p.write("direction", "out")
}

func (p *Pin) export() error {
	if p.exported {
		return nil
	}

	if _, err := os.Stat(p.dir()); err == nil {
		p.exported = true
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat gpio%d: %w", p.Number, err)
	}

	exportPath := filepath.Join(p.Root, "export")
	if err := os.WriteFile(exportPath, []byte(strconv.Itoa(p.Number)), 0o200); err != nil {
		return fmt.Errorf("export gpio%d: %w", p.Number, err)
	}
	p.exported = true
	return nil
}

func (p *Pin) write(attr, value string) error {
	if err := os.WriteFile(p.attr(attr), []byte(value), 0o644); err != nil {
		return fmt.Errorf("write gpio%d %s: %w", p.Number, attr, err)
	}
	return nil
}

func (p *Pin) dir() string {
	return filepath.Join(p.Root, "gpio"+strconv.Itoa(p.Number))
}

func (p *Pin) attr(name string) string {
	return filepath.Join(p.dir(), name)
}
