package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("registrations")

		collection.Fields.Add(
			// empty for guest checkouts; guests are identified by the
			// guest_* contact fields instead
			&core.TextField{
				Name: "user_id",
			},
			&core.TextField{
				Name: "guest_name",
			},
			&core.EmailField{
				Name: "guest_email",
			},
			&core.TextField{
				Name: "guest_phone",
			},
			&core.TextField{
				Name:     "event_id",
				Required: true,
			},
			&core.TextField{
				Name:     "ticket_type",
				Required: true,
			},
			// decimal string, e.g. "19.99"; a number field would force the
			// price through float64
			&core.TextField{
				Name: "price",
			},
			&core.NumberField{
				Name:     "quantity",
				Required: true,
				OnlyInt:  true,
				Min:      types.Pointer(1.0),
			},
			&core.TextField{
				Name: "payment_method",
			},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "confirmed", "cancelled"},
			},
			&core.SelectField{
				Name:      "payment_status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "paid"},
			},
			&core.DateField{
				Name: "paid_at",
			},
			&core.JSONField{
				Name:    "form_data",
				MaxSize: 2000000,
			},
			&core.AutodateField{
				Name:     "registered_at",
				OnCreate: true,
			},
		)

		collection.AddIndex("idx_registrations_user_id", false, "user_id", "")
		collection.AddIndex("idx_registrations_event_id", false, "event_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("registrations")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
