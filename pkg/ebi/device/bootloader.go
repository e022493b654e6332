package device

import "context"

// Bootloader commands carry raw payloads, their layout depends on the
// firmware image being flashed.

// BootloaderEnter switches the module into the bootloader.
func (d *Device) BootloaderEnter(ctx context.Context) error {
	_, err := d.exec(ctx, "bootloader enter", CmdBootloaderEnter)
	return err
}

// BootloaderSetOptions sets bootloader options.
func (d *Device) BootloaderSetOptions(ctx context.Context, opts []byte) error {
	_, err := d.exec(ctx, "bootloader set options", CmdBootloaderSetOptions, opts...)
	return err
}

// BootloaderEraseMemory erases flash memory.
func (d *Device) BootloaderEraseMemory(ctx context.Context, args []byte) error {
	_, err := d.exec(ctx, "bootloader erase memory", CmdBootloaderEraseMemory, args...)
	return err
}

// BootloaderWrite writes a block of flash memory.
func (d *Device) BootloaderWrite(ctx context.Context, block []byte) error {
	_, err := d.exec(ctx, "bootloader write", CmdBootloaderWrite, block...)
	return err
}

// BootloaderRead reads a block of flash memory.
func (d *Device) BootloaderRead(ctx context.Context, args []byte) ([]byte, error) {
	return d.exec(ctx, "bootloader read", CmdBootloaderRead, args...)
}

// BootloaderCommit finishes flashing and starts the new firmware.
func (d *Device) BootloaderCommit(ctx context.Context) error {
	_, err := d.exec(ctx, "bootloader commit", CmdBootloaderCommit)
	return err
}
