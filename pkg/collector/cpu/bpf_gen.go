//go:build linux && bpf

package cpu

//go:generate go run github.com/cilium/ebpf/cmd/bpf2go -cc clang -cflags "-O2 -g" sched_bpf ../../../bpf/sched_cpu.c
