// Package textutil holds small string helpers shared by the HTTP layer.
package textutil
