package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("tickets")

		collection.Fields.Add(
			&core.TextField{
				Name:     "code",
				Required: true,
			},
			&core.TextField{
				Name:     "registration_id",
				Required: true,
			},
			&core.NumberField{
				Name:    "slot",
				OnlyInt: true,
				Min:     types.Pointer(0.0),
			},
			&core.TextField{
				Name: "user_id",
			},
			&core.TextField{
				Name:     "event_id",
				Required: true,
			},
			&core.TextField{
				Name: "ticket_type",
			},
			&core.TextField{
				Name:     "qr_token",
				Required: true,
			},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"valid", "used", "cancelled"},
			},
			&core.DateField{
				Name: "used_at",
			},
			&core.TextField{
				Name: "validated_by",
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
		)

		// the redemption token is the lookup key at the gate
		collection.AddIndex("idx_tickets_qr_token", true, "qr_token", "")

		// one ticket per registration slot: concurrent issuance for the same
		// registration collides here instead of overshooting the quantity
		collection.AddIndex("idx_tickets_registration_slot", true, "registration_id, slot", "")

		collection.AddIndex("idx_tickets_user_id", false, "user_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
