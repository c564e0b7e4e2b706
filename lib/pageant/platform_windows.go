// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package pageant

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	wmCopyData = 0x004a
	smtoNormal = 0x0000
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procFindWindowW        = user32.NewProc("FindWindowW")
	procSendMessageTimeout = user32.NewProc("SendMessageTimeoutW")
)

// copyDataStruct mirrors COPYDATASTRUCT from winuser.h.
type copyDataStruct struct {
	data   uintptr
	length uint32
	buffer *byte
}

// NativePlatform returns the Win32 implementation: FindWindowW to
// locate the agent, user-owned file mappings for segments, and
// SendMessageTimeoutW with WM_COPYDATA for notifications.
func NativePlatform(window Window) Platform {
	return Platform{
		Locator:  windowLocator{window: window},
		Segments: fileMappings{},
		Notifier: copyDataNotifier{},
	}
}

type windowLocator struct {
	window Window
}

func (l windowLocator) Locate() (Handle, error) {
	class, err := windows.UTF16PtrFromString(l.window.Class)
	if err != nil {
		return 0, fmt.Errorf("%w: window class %q: %w", ErrAgentUnavailable, l.window.Class, err)
	}
	title, err := windows.UTF16PtrFromString(l.window.Title)
	if err != nil {
		return 0, fmt.Errorf("%w: window title %q: %w", ErrAgentUnavailable, l.window.Title, err)
	}
	hwnd, _, _ := procFindWindowW.Call(uintptr(unsafe.Pointer(class)), uintptr(unsafe.Pointer(title)))
	if hwnd == 0 {
		return 0, fmt.Errorf("%w: no window with class %q", ErrAgentUnavailable, l.window.Class)
	}
	return Handle(hwnd), nil
}

type fileMappings struct{}

// Create makes a pagefile-backed mapping owned by the current user.
// Pageant refuses requests in mappings owned by anyone else.
func (fileMappings) Create(name string, size int) (Segment, error) {
	attributes, err := currentUserAttributes()
	if err != nil {
		return nil, fmt.Errorf("%w: building security descriptor: %w", ErrMapping, err)
	}
	namePointer, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("%w: segment name %q: %w", ErrMapping, name, err)
	}

	mapping, err := windows.CreateFileMapping(windows.InvalidHandle, attributes,
		windows.PAGE_READWRITE, 0, uint32(size), namePointer)
	if err != nil {
		return nil, fmt.Errorf("%w: CreateFileMapping: %w", ErrMapping, err)
	}
	if windows.GetLastError() == windows.ERROR_ALREADY_EXISTS {
		windows.CloseHandle(mapping)
		return nil, fmt.Errorf("%w: segment %s already exists", ErrMapping, name)
	}
	address, err := windows.MapViewOfFile(mapping, windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(mapping)
		return nil, fmt.Errorf("%w: MapViewOfFile: %w", ErrMapping, err)
	}

	return &fileMapping{
		name:    name,
		handle:  mapping,
		address: address,
		memory:  unsafe.Slice((*byte)(unsafe.Pointer(address)), size),
	}, nil
}

func currentUserAttributes() (*windows.SecurityAttributes, error) {
	user, err := windows.GetCurrentProcessToken().GetTokenUser()
	if err != nil {
		return nil, fmt.Errorf("reading token user: %w", err)
	}
	descriptor, err := windows.NewSecurityDescriptor()
	if err != nil {
		return nil, err
	}
	if err := descriptor.SetOwner(user.User.Sid, false); err != nil {
		return nil, fmt.Errorf("setting owner: %w", err)
	}
	if !descriptor.IsValid() {
		return nil, errors.New("security descriptor is not valid")
	}
	attributes := &windows.SecurityAttributes{
		SecurityDescriptor: descriptor,
		InheritHandle:      1,
	}
	attributes.Length = uint32(unsafe.Sizeof(*attributes))
	return attributes, nil
}

type fileMapping struct {
	name    string
	handle  windows.Handle
	address uintptr
	memory  []byte
}

func (m *fileMapping) Name() string { return m.name }
func (m *fileMapping) Size() int    { return len(m.memory) }

func (m *fileMapping) WriteAt(p []byte, offset int64) (int, error) {
	if offset < 0 || offset > int64(len(m.memory)) {
		return 0, fmt.Errorf("offset %d outside segment of %d bytes", offset, len(m.memory))
	}
	written := copy(m.memory[offset:], p)
	if written < len(p) {
		return written, io.ErrShortWrite
	}
	return written, nil
}

func (m *fileMapping) ReadAt(p []byte, offset int64) (int, error) {
	if offset < 0 || offset > int64(len(m.memory)) {
		return 0, fmt.Errorf("offset %d outside segment of %d bytes", offset, len(m.memory))
	}
	read := copy(p, m.memory[offset:])
	if read < len(p) {
		return read, io.EOF
	}
	return read, nil
}

func (m *fileMapping) Release() error {
	m.memory = nil
	unmapError := windows.UnmapViewOfFile(m.address)
	closeError := windows.CloseHandle(m.handle)
	return errors.Join(unmapError, closeError)
}

type copyDataNotifier struct{}

func (copyDataNotifier) Notify(agent Handle, payload []byte, timeout time.Duration) error {
	if _, err := ParseNotification(payload); err != nil {
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}
	name := payload[notificationHeaderSize:]
	message := copyDataStruct{
		data:   uintptr(AgentCopyDataID),
		length: uint32(len(name)),
		buffer: &name[0],
	}

	var result uintptr
	returned, _, callError := procSendMessageTimeout.Call(
		uintptr(agent),
		wmCopyData,
		0,
		uintptr(unsafe.Pointer(&message)),
		smtoNormal,
		uintptr(timeout.Milliseconds()),
		uintptr(unsafe.Pointer(&result)),
	)
	runtime.KeepAlive(&message)
	runtime.KeepAlive(payload)
	if returned == 0 {
		switch {
		case errors.Is(callError, windows.ERROR_TIMEOUT):
			return fmt.Errorf("%w after %v", ErrTimeout, timeout)
		case errors.Is(callError, windows.ERROR_INVALID_WINDOW_HANDLE):
			return fmt.Errorf("%w: window handle %#x is no longer valid", ErrAgentUnavailable, agent)
		default:
			return fmt.Errorf("%w: SendMessageTimeout: %w", ErrRejected, callError)
		}
	}
	if result == 0 {
		return fmt.Errorf("%w: agent returned failure for WM_COPYDATA", ErrRejected)
	}
	return nil
}
