package model

import (
	"testing"
)

func TestCanBookingTransitionTo(t *testing.T) {
	tests := []struct {
		name   string
		from   string
		to     string
		want   bool
	}{
		{"pending可接单", BookingStatusPending, BookingStatusAccepted, true},
		{"pending可取消", BookingStatusPending, BookingStatusCancelled, true},
		{"accepted可出发", BookingStatusAccepted, BookingStatusOnTheWay, true},
		{"on_the_way可开工", BookingStatusOnTheWay, BookingStatusInProgress, true},
		{"in_progress可完成", BookingStatusInProgress, BookingStatusCompleted, true},
		{"in_progress可取消", BookingStatusInProgress, BookingStatusCancelled, true},
		{"不允许跳级接单到完成", BookingStatusAccepted, BookingStatusCompleted, false},
		{"不允许pending直接完成", BookingStatusPending, BookingStatusCompleted, false},
		{"不允许回退", BookingStatusInProgress, BookingStatusAccepted, false},
		{"completed是终态", BookingStatusCompleted, BookingStatusCancelled, false},
		{"cancelled是终态", BookingStatusCancelled, BookingStatusAccepted, false},
		{"未知状态一律拒绝", "unknown", BookingStatusAccepted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanBookingTransitionTo(tt.from, tt.to); got != tt.want {
				t.Errorf("CanBookingTransitionTo(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestIsTerminalBookingStatus(t *testing.T) {
	terminal := []string{BookingStatusCompleted, BookingStatusCancelled}
	for _, s := range terminal {
		if !IsTerminalBookingStatus(s) {
			t.Errorf("IsTerminalBookingStatus(%s) = false, want true", s)
		}
	}
	nonTerminal := []string{BookingStatusPending, BookingStatusAccepted, BookingStatusOnTheWay, BookingStatusInProgress}
	for _, s := range nonTerminal {
		if IsTerminalBookingStatus(s) {
			t.Errorf("IsTerminalBookingStatus(%s) = true, want false", s)
		}
	}
}

func TestCanRoleSetBookingStatus(t *testing.T) {
	tests := []struct {
		name   string
		role   string
		target string
		want   bool
	}{
		{"技师可接单", RoleProfessional, BookingStatusAccepted, true},
		{"技师可出发", RoleProfessional, BookingStatusOnTheWay, true},
		{"技师可完成", RoleProfessional, BookingStatusCompleted, true},
		{"技师可取消", RoleProfessional, BookingStatusCancelled, true},
		{"用户只能取消", RoleCustomer, BookingStatusCancelled, true},
		{"用户不能接单", RoleCustomer, BookingStatusAccepted, false},
		{"用户不能标记完成", RoleCustomer, BookingStatusCompleted, false},
		{"管理员可任意推进", RoleAdmin, BookingStatusInProgress, true},
		{"系统可接单", RoleSystem, BookingStatusAccepted, true},
		{"系统不能标记完成", RoleSystem, BookingStatusCompleted, false},
		{"任何角色都不能置回pending", RoleAdmin, BookingStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanRoleSetBookingStatus(tt.role, tt.target); got != tt.want {
				t.Errorf("CanRoleSetBookingStatus(%s, %s) = %v, want %v", tt.role, tt.target, got, tt.want)
			}
		})
	}
}
