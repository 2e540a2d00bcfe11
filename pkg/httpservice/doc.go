// Package httpservice implements DeviceService over plain HTTP REST
// calls, with command delivery simulated by a long-poll loop per
// subscribed device. It carries no persistent connection: Connect
// only verifies the server is reachable, and Close simply stops any
// outstanding poll loops.
package httpservice
