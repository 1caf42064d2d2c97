package api

import (
	"net/http"

	"github.com/xraph/forge"
)

func (a *API) listCapabilities(ctx forge.Context) error {
	infos := a.eng.Capabilities()
	resp := make(ListCapabilitiesResponse, len(infos))
	for _, info := range infos {
		resp[info.Name] = CapabilityInfo{Description: info.Description}
	}
	return ctx.JSON(http.StatusOK, resp)
}
